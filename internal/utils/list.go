package utils

import "strings"

func IsStringInSlice(s string, slice []string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

// AppendUnique appends values not already present, preserving order.
func AppendUnique(slice []string, values ...string) []string {
	for _, v := range values {
		if v != "" && !IsStringInSlice(v, slice) {
			slice = append(slice, v)
		}
	}
	return slice
}

func SliceToString(slice []string) string {
	return strings.Join(slice, ",")
}

func StringToSlice(str string) []string {
	if str == "" {
		return []string{}
	}
	return strings.Split(str, ",")
}
