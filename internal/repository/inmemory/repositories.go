// Package inmemory holds map-backed repositories with the same semantics as the
// Postgres ones. Services use them in tests; they are not wired in production.
package inmemory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/repository"
)

// NewRepositories returns a full repository set backed by maps. legacy may be nil.
func NewRepositories(legacy *LegacySource) *repository.Repositories {
	repos := &repository.Repositories{
		EmailRepository:           NewEmailRepository(),
		EmailAttachmentRepository: NewEmailAttachmentRepository(),
		MailboxSyncRepository:     NewMailboxSyncRepository(),
		FailedImportRepository:    NewFailedImportRepository(),
		CustomerRepository:        NewCustomerRepository(),
		QuoteRepository:           NewQuoteRepository(),
		InvoiceRepository:         NewInvoiceRepository(),
		ShareTokenRepository:      NewShareTokenRepository(),
		NotificationRepository:    NewNotificationRepository(),
		PendingImportRepository:   NewPendingImportRepository(),
		SettingRepository:         NewSettingRepository(),
	}
	if legacy != nil {
		repos.LegacySource = legacy
	}
	return repos
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type EmailRepository struct {
	mu     sync.Mutex
	emails map[string]models.Email
}

func NewEmailRepository() *EmailRepository {
	return &EmailRepository{emails: map[string]models.Email{}}
}

func (r *EmailRepository) Create(_ context.Context, email *models.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if email == nil || email.IdentityKey == "" {
		return repository.ErrInvalidInput
	}
	for _, existing := range r.emails {
		if existing.IdentityKey == email.IdentityKey {
			email.ID = existing.ID
			return nil
		}
	}
	if err := email.BeforeCreate(nil); err != nil {
		return err
	}
	email.UpdatedAt = email.CreatedAt
	stored := *email
	stored.Attachments = nil
	r.emails[email.ID] = stored
	return nil
}

func (r *EmailRepository) GetByID(_ context.Context, id string) (*models.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if email, ok := r.emails[id]; ok {
		return &email, nil
	}
	return nil, nil
}

func (r *EmailRepository) GetByIdentityKey(_ context.Context, identityKey string) (*models.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, email := range r.emails {
		if email.IdentityKey == identityKey {
			found := email
			return &found, nil
		}
	}
	return nil, nil
}

func (r *EmailRepository) ListByFolder(_ context.Context, folder enum.EmailFolder, limit, offset int) ([]*models.Email, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.Email
	for _, email := range r.emails {
		e := email
		if folder == enum.EmailFolderStarred {
			if e.IsStarred && e.Folder != enum.EmailFolderTrash {
				matched = append(matched, &e)
			}
		} else if e.Folder == folder {
			matched = append(matched, &e)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Date.After(matched[j].Date) })
	return page(matched, limit, offset), int64(len(matched)), nil
}

func (r *EmailRepository) UpdateFlags(_ context.Context, id string, isRead, isStarred bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email, ok := r.emails[id]
	if !ok {
		return repository.ErrNotFound
	}
	email.IsRead, email.IsStarred = isRead, isStarred
	email.UpdatedAt = time.Now().UTC()
	r.emails[id] = email
	return nil
}

func (r *EmailRepository) MoveToFolder(_ context.Context, id string, folder enum.EmailFolder, imapUID uint32, identityKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email, ok := r.emails[id]
	if !ok {
		return repository.ErrNotFound
	}
	email.Folder = folder
	email.ImapUID = imapUID
	email.IdentityKey = identityKey
	r.emails[id] = email
	return nil
}

func (r *EmailRepository) MarkImported(_ context.Context, id, customerID string, importedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if customerID == "" {
		return repository.ErrInvalidInput
	}
	email, ok := r.emails[id]
	if !ok {
		return repository.ErrNotFound
	}
	email.IsImported = true
	email.ImportedCustomerID = customerID
	email.ImportedAt = &importedAt
	r.emails[id] = email
	return nil
}

func (r *EmailRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.emails, id)
	return nil
}

// Count is a test helper.
func (r *EmailRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.emails)
}

type EmailAttachmentRepository struct {
	mu          sync.Mutex
	attachments []models.EmailAttachment
}

func NewEmailAttachmentRepository() *EmailAttachmentRepository {
	return &EmailAttachmentRepository{}
}

func (r *EmailAttachmentRepository) Create(_ context.Context, attachment *models.EmailAttachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if attachment == nil || attachment.EmailID == "" {
		return repository.ErrInvalidInput
	}
	if err := attachment.BeforeCreate(nil); err != nil {
		return err
	}
	r.attachments = append(r.attachments, *attachment)
	return nil
}

func (r *EmailAttachmentRepository) ListByEmail(_ context.Context, emailID string) ([]*models.EmailAttachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.EmailAttachment
	for _, a := range r.attachments {
		if a.EmailID == emailID {
			found := a
			result = append(result, &found)
		}
	}
	return result, nil
}

type MailboxSyncRepository struct {
	mu     sync.Mutex
	states map[string]models.MailboxSyncState
}

func NewMailboxSyncRepository() *MailboxSyncRepository {
	return &MailboxSyncRepository{states: map[string]models.MailboxSyncState{}}
}

func (r *MailboxSyncRepository) GetSyncState(_ context.Context, mailboxID string, folder enum.EmailFolder) (*models.MailboxSyncState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.states[mailboxID+"/"+folder.String()]; ok {
		return &state, nil
	}
	return nil, nil
}

func (r *MailboxSyncRepository) SaveSyncState(_ context.Context, state *models.MailboxSyncState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state == nil || state.MailboxID == "" {
		return repository.ErrInvalidInput
	}
	r.states[state.MailboxID+"/"+state.Folder.String()] = *state
	return nil
}

func (r *MailboxSyncRepository) GetMailboxSyncStates(_ context.Context, mailboxID string) ([]*models.MailboxSyncState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.MailboxSyncState
	for _, state := range r.states {
		if state.MailboxID == mailboxID {
			s := state
			result = append(result, &s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Folder < result[j].Folder })
	return result, nil
}

type FailedImportRepository struct {
	mu    sync.Mutex
	items map[string]models.FailedImport
}

func NewFailedImportRepository() *FailedImportRepository {
	return &FailedImportRepository{items: map[string]models.FailedImport{}}
}

func (r *FailedImportRepository) Create(_ context.Context, failedImport *models.FailedImport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if failedImport == nil {
		return repository.ErrInvalidInput
	}
	if err := failedImport.BeforeCreate(nil); err != nil {
		return err
	}
	r.items[failedImport.ID] = *failedImport
	return nil
}

func (r *FailedImportRepository) GetByID(_ context.Context, id string) (*models.FailedImport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item, ok := r.items[id]; ok {
		return &item, nil
	}
	return nil, nil
}

func (r *FailedImportRepository) GetUnresolvedByEmailID(_ context.Context, emailID string) (*models.FailedImport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.EmailID == emailID && !item.Resolved {
			found := item
			return &found, nil
		}
	}
	return nil, nil
}

func (r *FailedImportRepository) ListUnresolved(_ context.Context, limit int) ([]*models.FailedImport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.FailedImport
	for _, item := range r.items {
		if !item.Resolved {
			found := item
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, limit, 0), nil
}

func (r *FailedImportRepository) MarkResolved(_ context.Context, id, resolvedBy, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	item.Resolved = true
	item.ResolvedAt = &now
	item.ResolvedBy = resolvedBy
	item.NewCustomerID = customerID
	r.items[id] = item
	return nil
}

func (r *FailedImportRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

// Count is a test helper.
func (r *FailedImportRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type CustomerRepository struct {
	mu        sync.Mutex
	customers map[string]models.Customer
	// FailCreate makes Create fail for matching ids; used to exercise partial failures.
	FailCreate func(c *models.Customer) error
}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{customers: map[string]models.Customer{}}
}

func (r *CustomerRepository) Create(_ context.Context, customer *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if customer == nil {
		return repository.ErrInvalidInput
	}
	if r.FailCreate != nil {
		if err := r.FailCreate(customer); err != nil {
			return err
		}
	}
	if err := customer.BeforeCreate(nil); err != nil {
		return err
	}
	r.customers[customer.ID] = *customer
	return nil
}

func (r *CustomerRepository) Overwrite(_ context.Context, customer *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if customer == nil || customer.ID == "" {
		return repository.ErrInvalidInput
	}
	r.customers[customer.ID] = *customer
	return nil
}

func (r *CustomerRepository) GetByID(_ context.Context, id string) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.customers[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *CustomerRepository) GetBySourceEmailID(_ context.Context, emailID string) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if emailID == "" {
		return nil, nil
	}
	for _, c := range r.customers {
		if c.SourceEmailID == emailID {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (r *CustomerRepository) FindByEmailOrPhone(_ context.Context, email, phone string) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if email == "" && phone == "" {
		return nil, nil
	}
	for _, c := range r.customers {
		if (email != "" && equalFold(c.Email, email)) || (phone != "" && c.Phone == phone) {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (r *CustomerRepository) List(_ context.Context, limit, offset int) ([]*models.Customer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		found := c
		result = append(result, &found)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, limit, offset), int64(len(result)), nil
}

func (r *CustomerRepository) ListIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.customers))
	for id := range r.customers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Snapshot is a test helper returning every stored customer keyed by id.
func (r *CustomerRepository) Snapshot() map[string]models.Customer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]models.Customer, len(r.customers))
	for k, v := range r.customers {
		out[k] = v
	}
	return out
}

type QuoteRepository struct {
	mu     sync.Mutex
	quotes map[string]models.Quote
}

func NewQuoteRepository() *QuoteRepository {
	return &QuoteRepository{quotes: map[string]models.Quote{}}
}

func (r *QuoteRepository) Create(_ context.Context, quote *models.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if quote == nil {
		return repository.ErrInvalidInput
	}
	if err := quote.BeforeCreate(nil); err != nil {
		return err
	}
	r.quotes[quote.ID] = *quote
	return nil
}

func (r *QuoteRepository) Overwrite(_ context.Context, quote *models.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if quote == nil || quote.ID == "" {
		return repository.ErrInvalidInput
	}
	r.quotes[quote.ID] = *quote
	return nil
}

func (r *QuoteRepository) GetByID(_ context.Context, id string) (*models.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	quote, ok := r.quotes[id]
	if !ok {
		return nil, nil
	}
	return &quote, nil
}

func (r *QuoteRepository) GetLatestByCustomer(ctx context.Context, customerID string) (*models.Quote, error) {
	quotes, _ := r.ListByCustomer(ctx, customerID)
	if len(quotes) == 0 {
		return nil, nil
	}
	return quotes[0], nil
}

func (r *QuoteRepository) ListByCustomer(_ context.Context, customerID string) ([]*models.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Quote
	for _, q := range r.quotes {
		if q.CustomerID == customerID {
			found := q
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *QuoteRepository) ListIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.quotes))
	for id := range r.quotes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Snapshot is a test helper returning every stored quote keyed by id.
func (r *QuoteRepository) Snapshot() map[string]models.Quote {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]models.Quote, len(r.quotes))
	for k, v := range r.quotes {
		out[k] = v
	}
	return out
}

type InvoiceRepository struct {
	mu       sync.Mutex
	invoices map[string]models.Invoice
}

func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{invoices: map[string]models.Invoice{}}
}

func (r *InvoiceRepository) Create(_ context.Context, invoice *models.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if invoice == nil {
		return repository.ErrInvalidInput
	}
	if err := invoice.BeforeCreate(nil); err != nil {
		return err
	}
	r.invoices[invoice.ID] = *invoice
	return nil
}

func (r *InvoiceRepository) Overwrite(_ context.Context, invoice *models.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if invoice == nil || invoice.ID == "" {
		return repository.ErrInvalidInput
	}
	r.invoices[invoice.ID] = *invoice
	return nil
}

func (r *InvoiceRepository) ListByCustomer(_ context.Context, customerID string) ([]*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Invoice
	for _, inv := range r.invoices {
		if inv.CustomerID == customerID {
			found := inv
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *InvoiceRepository) ListIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.invoices))
	for id := range r.invoices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type ShareTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]models.ShareToken
}

func NewShareTokenRepository() *ShareTokenRepository {
	return &ShareTokenRepository{tokens: map[string]models.ShareToken{}}
}

func (r *ShareTokenRepository) Create(_ context.Context, token *models.ShareToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token == nil || token.Token == "" {
		return repository.ErrInvalidInput
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	r.tokens[token.Token] = *token
	return nil
}

func (r *ShareTokenRepository) GetByToken(_ context.Context, token string) (*models.ShareToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[token]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r *ShareTokenRepository) RecordAccess(_ context.Context, token string, accessedAt time.Time) (*models.ShareToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok || t.Status != enum.ShareTokenActive || !t.ExpiresAt.After(accessedAt) {
		return nil, nil
	}
	t.AccessCount++
	t.LastAccessedAt = &accessedAt
	r.tokens[token] = t
	return &t, nil
}

func (r *ShareTokenRepository) Revoke(_ context.Context, token string, revokedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return repository.ErrNotFound
	}
	t.Status = enum.ShareTokenRevoked
	t.RevokedAt = &revokedAt
	t.ExpiresAt = revokedAt.Add(-time.Second)
	r.tokens[token] = t
	return nil
}

func (r *ShareTokenRepository) ListByCustomer(_ context.Context, customerID string) ([]*models.ShareToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.ShareToken
	for _, t := range r.tokens {
		if t.CustomerID == customerID {
			found := t
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *ShareTokenRepository) ExpireBefore(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for key, t := range r.tokens {
		if t.Status == enum.ShareTokenActive && !t.ExpiresAt.After(now) {
			t.Status = enum.ShareTokenExpired
			r.tokens[key] = t
			n++
		}
	}
	return n, nil
}

// Put stores a token as-is; tests use it to plant expired tokens.
func (r *ShareTokenRepository) Put(token models.ShareToken) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Token] = token
}

type NotificationRepository struct {
	mu            sync.Mutex
	notifications map[string]models.Notification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{notifications: map[string]models.Notification{}}
}

func (r *NotificationRepository) Create(_ context.Context, notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if notification == nil {
		return repository.ErrInvalidInput
	}
	if err := notification.BeforeCreate(nil); err != nil {
		return err
	}
	r.notifications[notification.ID] = *notification
	return nil
}

func (r *NotificationRepository) GetByID(_ context.Context, id string) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.notifications[id]; ok {
		return &n, nil
	}
	return nil, nil
}

func (r *NotificationRepository) ListUnread(_ context.Context, limit int) ([]*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Notification
	for _, n := range r.notifications {
		if !n.Read {
			found := n
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, limit, 0), nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, id string, readAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}
	n.Read = true
	n.ReadAt = &readAt
	r.notifications[id] = n
	return nil
}

// All is a test helper returning every notification, read or not.
func (r *NotificationRepository) All() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Notification, 0, len(r.notifications))
	for _, n := range r.notifications {
		out = append(out, n)
	}
	return out
}

type PendingImportRepository struct {
	mu      sync.Mutex
	pending map[string]models.PendingImport
}

func NewPendingImportRepository() *PendingImportRepository {
	return &PendingImportRepository{pending: map[string]models.PendingImport{}}
}

func (r *PendingImportRepository) Get(_ context.Context, emailID string) (*models.PendingImport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pending[emailID]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r *PendingImportRepository) Save(_ context.Context, pending *models.PendingImport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pending == nil || pending.EmailID == "" {
		return repository.ErrInvalidInput
	}
	r.pending[pending.EmailID] = *pending
	return nil
}

func (r *PendingImportRepository) Delete(_ context.Context, emailID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, emailID)
	return nil
}

type SettingRepository struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewSettingRepository() *SettingRepository {
	return &SettingRepository{values: map[string][]byte{}}
}

func (r *SettingRepository) GetJSON(_ context.Context, key string, target interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, target)
}

func (r *SettingRepository) SetJSON(_ context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = data
	return nil
}

func (r *SettingRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.values, key)
	return nil
}

// LegacySource serves fixed legacy rows. Delay makes every list call block,
// which lets tests hold a sync pass in flight.
type LegacySource struct {
	Customers []models.LegacyCustomer
	Quotes    []models.LegacyQuote
	Invoices  []models.LegacyInvoice
	Delay     time.Duration
	// Gate, when set, blocks ListCustomers until it is closed.
	Gate chan struct{}
}

func (s *LegacySource) wait(ctx context.Context) error {
	if s.Gate != nil {
		select {
		case <-s.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *LegacySource) ListCustomers(ctx context.Context) ([]models.LegacyCustomer, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return append([]models.LegacyCustomer(nil), s.Customers...), nil
}

func (s *LegacySource) ListQuotes(_ context.Context) ([]models.LegacyQuote, error) {
	return append([]models.LegacyQuote(nil), s.Quotes...), nil
}

func (s *LegacySource) ListInvoices(_ context.Context) ([]models.LegacyInvoice, error) {
	return append([]models.LegacyInvoice(nil), s.Invoices...), nil
}
