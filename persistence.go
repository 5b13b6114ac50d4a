package courier

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Persisted session slots. The machine is the only writer of these keys.
const (
	KeyRole         = "user_role"
	KeyToken        = "auth_token"
	KeyAdminProfile = "admin_data"
	KeyStaffProfile = "staff_data"
)

// SessionKeys lists every persisted slot.
var SessionKeys = []string{KeyRole, KeyToken, KeyAdminProfile, KeyStaffProfile}

// persistedSession is a decoded persisted record. Profiles are nil when the
// slot was empty or belongs to the other role.
type persistedSession struct {
	Role  Role
	Token string
	Admin *AdminProfile
	Staff *StaffProfile
}

func (p *persistedSession) hasAdminSession() bool {
	return p != nil && p.Role == RoleAdmin && p.Admin != nil
}

func (p *persistedSession) hasStaffSession() bool {
	return p != nil && p.Role == RoleStaff && p.Staff != nil
}

type slot struct {
	value string
	ok    bool
}

// loadSession reads all slots concurrently. It returns nil, nil when role or
// token is absent, which is how a first run looks.
func loadSession(ctx context.Context, store SecureStore) (*persistedSession, error) {
	slots := make([]slot, len(SessionKeys))

	g, gctx := errgroup.WithContext(ctx)
	for i, key := range SessionKeys {
		g.Go(func() error {
			value, ok, err := store.Get(gctx, key)
			if err != nil {
				return fmt.Errorf("read %s: %w", key, err)
			}
			slots[i] = slot{value: value, ok: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	role, token, adminJSON, staffJSON := slots[0], slots[1], slots[2], slots[3]
	if !role.ok || role.value == "" || !token.ok || token.value == "" {
		return nil, nil
	}

	record := &persistedSession{
		Role:  Role(role.value),
		Token: token.value,
	}

	switch record.Role {
	case RoleAdmin:
		if adminJSON.ok && adminJSON.value != "" {
			record.Admin = &AdminProfile{}
			if err := json.Unmarshal([]byte(adminJSON.value), record.Admin); err != nil {
				return nil, fmt.Errorf("decode %s: %w", KeyAdminProfile, err)
			}
		}
	case RoleStaff:
		if staffJSON.ok && staffJSON.value != "" {
			record.Staff = &StaffProfile{}
			if err := json.Unmarshal([]byte(staffJSON.value), record.Staff); err != nil {
				return nil, fmt.Errorf("decode %s: %w", KeyStaffProfile, err)
			}
		}
	}

	return record, nil
}

// persistSession writes role, token and the profile slot of the session's
// role. The other role's profile slot is left untouched.
func persistSession(ctx context.Context, store SecureStore, session Session) error {
	values := map[string]string{
		KeyRole:  string(session.Role),
		KeyToken: session.Token,
	}

	switch session.Role {
	case RoleAdmin:
		raw, err := json.Marshal(session.Admin)
		if err != nil {
			return fmt.Errorf("encode %s: %w", KeyAdminProfile, err)
		}
		values[KeyAdminProfile] = string(raw)
	case RoleStaff:
		raw, err := json.Marshal(session.Staff)
		if err != nil {
			return fmt.Errorf("encode %s: %w", KeyStaffProfile, err)
		}
		values[KeyStaffProfile] = string(raw)
	}

	if batch, ok := store.(BatchStore); ok {
		return batch.SetMany(ctx, values)
	}

	var g errgroup.Group
	for key, value := range values {
		g.Go(func() error {
			if err := store.Set(ctx, key, value); err != nil {
				return fmt.Errorf("write %s: %w", key, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// clearSession deletes every slot. Without batch support each delete runs
// even when another one fails.
func clearSession(ctx context.Context, store SecureStore) error {
	if batch, ok := store.(BatchStore); ok {
		return batch.DeleteMany(ctx, SessionKeys...)
	}

	var g errgroup.Group
	for _, key := range SessionKeys {
		g.Go(func() error {
			if err := store.Delete(ctx, key); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
			return nil
		})
	}
	return g.Wait()
}
