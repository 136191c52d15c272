package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"tournament-hosting-system/models"
	"tournament-hosting-system/storage"
	"tournament-hosting-system/utils"
)

// ProfileChange matches the JSON the auth service returns for changed
// accounts. Role is optional; accounts without one stay students locally.
type ProfileChange struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Photo     string    `json:"photo,omitempty"`
	Role      string    `json:"role,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type profileChangesResponse struct {
	Users []ProfileChange `json:"users"`
}

// UserSyncWorker mirrors account profiles from the auth service into the
// local users table so role lookups never leave the process.
type UserSyncWorker struct {
	store        storage.Store
	interval     time.Duration
	baseURL      string
	serviceToken string
	httpClient   *http.Client

	lastSync time.Time
}

func NewUserSyncWorker(store storage.Store, baseURL, serviceToken string) *UserSyncWorker {
	return &UserSyncWorker{
		store:        store,
		interval:     1 * time.Minute,
		baseURL:      baseURL,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
	}
}

func (w *UserSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting User Sync Worker (auth service → users)…")
	go w.run(ctx)
}

func (w *UserSyncWorker) run(ctx context.Context) {
	// Initial backfill from the beginning of time
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial user sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.lastSync); err != nil {
				log.Printf("❌ User sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ User Sync Worker stopped")
			return
		}
	}
}

func (w *UserSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid auth service URL '%s': %w", w.baseURL, err)
	}
	endpoint := base.JoinPath("/api/v1/profiles/changes")
	q := endpoint.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create sync request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth service request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("auth service non-200 response: %d %s", resp.StatusCode, string(body))
	}

	var response profileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode auth service response: %w", err)
	}

	if len(response.Users) == 0 {
		w.lastSync = time.Now()
		return nil
	}

	var upserted, failed int
	newest := w.lastSync
	for _, change := range response.Users {
		if change.Email == "" {
			failed++
			continue
		}
		user := &models.User{
			ID:    uuid.NewString(),
			Name:  change.Name,
			Email: change.Email,
			Photo: change.Photo,
			Role:  change.Role,
		}
		if user.Role == "" {
			user.Role = models.RoleStudent
		}
		if err := w.store.UpsertUser(ctx, user); err != nil {
			failed++
			log.Printf("[SYNC] ❌ Upsert for %s failed: %v", change.Email, err)
			continue
		}
		upserted++
		if change.UpdatedAt.After(newest) {
			newest = change.UpdatedAt
		}
	}
	w.lastSync = newest

	log.Printf("[SYNC] ✅ %d user(s) upserted, %d failed", upserted, failed)
	return nil
}
