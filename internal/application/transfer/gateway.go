package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/crmportal/backend/internal/domain/contact"
	"github.com/crmportal/backend/internal/infrastructure/bitrix"
	"github.com/crmportal/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// contactSelectFields are requested on every contact listing call
var contactSelectFields = []string{"ID", "NAME", "LAST_NAME", "PHONE", "EMAIL", "COMPANY_ID"}

// ContactGateway translates between domain contact records and the
// remote CRM's REST methods. Creation prefers one batched multi-call
// per chunk and falls back to throttled sequential calls when the batch
// itself cannot be executed.
type ContactGateway struct {
	client *bitrix.Client
	cache  CompanyCache
	cfg    config.BitrixConfig
	logger *zap.Logger
}

// NewContactGateway creates a new ContactGateway
func NewContactGateway(client *bitrix.Client, cache CompanyCache, cfg config.BitrixConfig, logger *zap.Logger) *ContactGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactGateway{client: client, cache: cache, cfg: cfg, logger: logger}
}

// Ensure ContactGateway implements ContactService
var _ ContactService = (*ContactGateway)(nil)

// CreateContacts pushes one chunk of contacts to the remote CRM and
// returns one result per input, aligned by index. A failure of a single
// contact never fails the chunk.
func (g *ContactGateway) CreateContacts(ctx context.Context, contacts []contact.Record) ([]CreateResult, error) {
	if len(contacts) == 0 {
		return nil, nil
	}

	if g.cfg.BatchEnabled {
		results, err := g.createBatch(ctx, contacts)
		if err == nil {
			return results, nil
		}
		g.logger.Warn("batched contact creation failed, falling back to sequential calls",
			zap.Int("count", len(contacts)),
			zap.Error(err),
		)
	}

	return g.createSequential(ctx, contacts), nil
}

// createBatch pre-resolves the distinct company titles referenced by the
// chunk, then submits the whole chunk as one multi-call. Pre-resolution
// only looks companies up; a contact naming an unknown company is created
// without one. Per-command errors come back under the commands'
// correlation keys.
func (g *ContactGateway) createBatch(ctx context.Context, contacts []contact.Record) ([]CreateResult, error) {
	companyIDs := make(map[string]string)
	for _, c := range contacts {
		title := strings.TrimSpace(c.CompanyName)
		if title == "" {
			continue
		}
		if _, done := companyIDs[title]; done {
			continue
		}
		id, err := g.lookupCompany(ctx, title)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve company %q: %w", title, err)
		}
		companyIDs[title] = id
	}

	commands := make([]bitrix.Command, len(contacts))
	for i, c := range contacts {
		commands[i] = bitrix.Command{
			Key:    bitrix.CommandKey(i),
			Method: "crm.contact.add",
			Params: contactAddParams(c, companyIDs[strings.TrimSpace(c.CompanyName)]),
		}
	}

	batch, err := g.client.CallBatch(ctx, commands)
	if err != nil {
		return nil, err
	}

	results := make([]CreateResult, len(contacts))
	for i := range contacts {
		results[i].Index = i
		raw, err := batch.ResultFor(bitrix.CommandKey(i))
		if err != nil {
			results[i].Err = err
			continue
		}
		results[i].ContactID = parseID(raw)
	}
	return results, nil
}

// createSequential creates contacts one call at a time with a pause
// between calls, so a portal rate limit does not reject the run
func (g *ContactGateway) createSequential(ctx context.Context, contacts []contact.Record) []CreateResult {
	results := make([]CreateResult, len(contacts))
	for i, c := range contacts {
		results[i].Index = i

		if i > 0 && g.cfg.CallDelay > 0 {
			select {
			case <-ctx.Done():
				results[i].Err = ctx.Err()
				continue
			case <-time.After(g.cfg.CallDelay):
			}
		}

		companyID := ""
		if title := strings.TrimSpace(c.CompanyName); title != "" {
			id, err := g.resolveOrCreateCompany(ctx, title)
			if err != nil {
				results[i].Err = fmt.Errorf("failed to resolve company %q: %w", title, err)
				continue
			}
			companyID = id
		}

		fields := map[string]any{
			"NAME":      c.FirstName,
			"LAST_NAME": c.LastName,
		}
		if c.Phone != "" {
			fields["PHONE"] = []map[string]string{{"VALUE": c.Phone, "VALUE_TYPE": "WORK"}}
		}
		if c.Email != "" {
			fields["EMAIL"] = []map[string]string{{"VALUE": c.Email, "VALUE_TYPE": "WORK"}}
		}
		if companyID != "" {
			fields["COMPANY_ID"] = companyID
		}

		res, err := g.client.Call(ctx, "crm.contact.add", map[string]any{"fields": fields})
		if err != nil {
			results[i].Err = err
			continue
		}
		results[i].ContactID = parseID(res.Result)
	}
	return results
}

// lookupCompany finds a company by exact title, going through the cache
// first. An unknown title yields an empty ID, not an error.
func (g *ContactGateway) lookupCompany(ctx context.Context, title string) (string, error) {
	if id, ok, _ := g.cache.Get(ctx, title); ok {
		return id, nil
	}

	res, err := g.client.Call(ctx, "crm.company.list", map[string]any{
		"filter": map[string]any{"TITLE": title},
		"select": []string{"ID", "TITLE"},
	})
	if err != nil {
		return "", err
	}

	var companies []companyPayload
	if err := json.Unmarshal(res.Result, &companies); err != nil {
		return "", fmt.Errorf("failed to decode company list: %w", err)
	}
	if len(companies) == 0 {
		return "", nil
	}
	id := companies[0].ID
	_ = g.cache.Set(ctx, title, id)
	return id, nil
}

// resolveOrCreateCompany finds a company by exact title, creating it when
// absent
func (g *ContactGateway) resolveOrCreateCompany(ctx context.Context, title string) (string, error) {
	id, err := g.lookupCompany(ctx, title)
	if err != nil || id != "" {
		return id, err
	}

	created, err := g.client.Call(ctx, "crm.company.add", map[string]any{
		"fields": map[string]any{"TITLE": title},
	})
	if err != nil {
		return "", err
	}
	id = parseID(created.Result)
	_ = g.cache.Set(ctx, title, id)
	return id, nil
}

// ListContacts fetches the remote contacts matching the filter page by
// page, newest first, and joins company titles in. A page failure after
// the first page returns the contacts collected so far marked Degraded.
func (g *ContactGateway) ListContacts(ctx context.Context, filter ContactFilter) (*ContactPage, error) {
	pageSize := g.cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	listFilter := map[string]any{}
	if filter.DateFrom != "" {
		listFilter[">=DATE_CREATE"] = filter.DateFrom
	}
	if filter.DateTo != "" {
		listFilter["<=DATE_CREATE"] = filter.DateTo
	}

	page := &ContactPage{}
	start := 0

	for {
		params := map[string]any{
			"order":  map[string]string{"DATE_CREATE": "DESC"},
			"select": contactSelectFields,
			"start":  start,
		}
		if len(listFilter) > 0 {
			params["filter"] = listFilter
		}

		res, err := g.client.Call(ctx, "crm.contact.list", params)
		if err != nil {
			if len(page.Contacts) == 0 {
				return nil, err
			}
			g.logger.Warn("contact listing broke off mid-pagination",
				zap.Int("fetched", len(page.Contacts)),
				zap.Error(err),
			)
			page.Degraded = true
			break
		}

		var payload []remoteContactPayload
		if err := json.Unmarshal(res.Result, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode contact list: %w", err)
		}
		for _, p := range payload {
			page.Contacts = append(page.Contacts, p.toRemoteContact())
		}

		// a short page is the last page even when the portal still
		// reports a continuation offset
		if res.Next == nil || len(payload) < pageSize {
			break
		}
		start = *res.Next
	}

	if err := g.joinCompanyTitles(ctx, page); err != nil {
		// company titles are an enrichment, not a listing failure
		g.logger.Warn("failed to join company titles", zap.Error(err))
		page.Degraded = true
	}

	return page, nil
}

// joinCompanyTitles resolves the distinct company IDs referenced by the
// page in a single list call
func (g *ContactGateway) joinCompanyTitles(ctx context.Context, page *ContactPage) error {
	ids := make([]string, 0)
	seen := make(map[string]bool)
	for _, c := range page.Contacts {
		if c.CompanyID == "" || c.CompanyID == "0" || seen[c.CompanyID] {
			continue
		}
		seen[c.CompanyID] = true
		ids = append(ids, c.CompanyID)
	}
	if len(ids) == 0 {
		return nil
	}

	res, err := g.client.Call(ctx, "crm.company.list", map[string]any{
		"filter": map[string]any{"ID": ids},
		"select": []string{"ID", "TITLE"},
	})
	if err != nil {
		return err
	}

	var companies []companyPayload
	if err := json.Unmarshal(res.Result, &companies); err != nil {
		return fmt.Errorf("failed to decode company list: %w", err)
	}

	titles := make(map[string]string, len(companies))
	for _, c := range companies {
		titles[c.ID] = c.Title
	}
	for i := range page.Contacts {
		page.Contacts[i].CompanyName = titles[page.Contacts[i].CompanyID]
	}
	return nil
}

// GetContactCompanies returns the companies attached to one remote contact
func (g *ContactGateway) GetContactCompanies(ctx context.Context, contactID string) ([]Company, error) {
	res, err := g.client.Call(ctx, "crm.contact.get", map[string]any{"id": contactID})
	if err != nil {
		return nil, err
	}

	var payload remoteContactPayload
	if err := json.Unmarshal(res.Result, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode contact: %w", err)
	}
	if payload.CompanyID == "" || payload.CompanyID == "0" {
		return nil, nil
	}

	listed, err := g.client.Call(ctx, "crm.company.list", map[string]any{
		"filter": map[string]any{"ID": []string{payload.CompanyID}},
		"select": []string{"ID", "TITLE"},
	})
	if err != nil {
		return nil, err
	}

	var companies []companyPayload
	if err := json.Unmarshal(listed.Result, &companies); err != nil {
		return nil, fmt.Errorf("failed to decode company list: %w", err)
	}

	out := make([]Company, len(companies))
	for i, c := range companies {
		out[i] = Company{ID: c.ID, Title: c.Title}
	}
	return out, nil
}

// contactAddParams renders a contact's fields in the query form batch
// commands require
func contactAddParams(c contact.Record, companyID string) url.Values {
	params := url.Values{}
	params.Set("fields[NAME]", c.FirstName)
	params.Set("fields[LAST_NAME]", c.LastName)
	if c.Phone != "" {
		params.Set("fields[PHONE][0][VALUE]", c.Phone)
		params.Set("fields[PHONE][0][VALUE_TYPE]", "WORK")
	}
	if c.Email != "" {
		params.Set("fields[EMAIL][0][VALUE]", c.Email)
		params.Set("fields[EMAIL][0][VALUE_TYPE]", "WORK")
	}
	if companyID != "" {
		params.Set("fields[COMPANY_ID]", companyID)
	}
	return params
}

// multiField is one entry of the CRM's PHONE and EMAIL value arrays
type multiField struct {
	Value     string `json:"VALUE"`
	ValueType string `json:"VALUE_TYPE"`
}

type remoteContactPayload struct {
	ID        string       `json:"ID"`
	Name      string       `json:"NAME"`
	LastName  string       `json:"LAST_NAME"`
	CompanyID string       `json:"COMPANY_ID"`
	Phone     []multiField `json:"PHONE"`
	Email     []multiField `json:"EMAIL"`
}

func (p remoteContactPayload) toRemoteContact() RemoteContact {
	rc := RemoteContact{
		ID:        p.ID,
		FirstName: p.Name,
		LastName:  p.LastName,
		CompanyID: p.CompanyID,
	}
	if len(p.Phone) > 0 {
		rc.Phone = p.Phone[0].Value
	}
	if len(p.Email) > 0 {
		rc.Email = p.Email[0].Value
	}
	return rc
}

type companyPayload struct {
	ID    string `json:"ID"`
	Title string `json:"TITLE"`
}

// parseID normalizes an entity ID, which the CRM returns either as a
// number or a string depending on the method
func parseID(raw json.RawMessage) string {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(string(raw), `"`)
}
