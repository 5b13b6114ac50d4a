package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goliatone/go-print"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-courier"
	"github.com/goliatone/go-courier/activitymap"
	"github.com/goliatone/go-courier/adapters/promsink"
	"github.com/goliatone/go-courier/apiclient"
	"github.com/goliatone/go-courier/config"
	"github.com/goliatone/go-courier/storage"
)

// sessionRuntime is the composition root of the session commands: one store,
// one API client and one machine per process.
type sessionRuntime struct {
	machine  *courier.SessionMachine
	client   *apiclient.Client
	metrics  *prometheus.Registry
	activity *activitymap.Recorder
	closers  []func() error
}

func (rt *sessionRuntime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		_ = rt.closers[i]()
	}
}

func (a *app) openStore(ctx context.Context, rt *sessionRuntime) (courier.SecureStore, error) {
	var store courier.SecureStore
	cfg := a.cfg.Storage

	switch cfg.Driver {
	case config.DriverSQLite:
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db := bun.NewDB(sqldb, sqlitedialect.New())
		rt.closers = append(rt.closers, db.Close)

		bunStore := storage.NewBunStore(db)
		if err := bunStore.CreateTable(ctx); err != nil {
			return nil, err
		}
		store = bunStore
	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		rt.closers = append(rt.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		store = storage.NewRedisStore(rdb, cfg.RedisPrefix)
	default:
		store = storage.NewMemoryStore()
	}

	if cfg.IdentityFile != "" {
		identity, err := storage.LoadIdentityFile(cfg.IdentityFile)
		if err != nil {
			return nil, err
		}
		sealed, err := storage.Seal(store, identity)
		if err != nil {
			return nil, err
		}
		store = sealed
	}

	a.logger.Debug("session store ready", "driver", cfg.Driver, "sealed", cfg.IdentityFile != "")
	return store, nil
}

// startSession builds the runtime and restores the persisted session.
func (a *app) startSession(ctx context.Context) (*sessionRuntime, error) {
	rt := &sessionRuntime{
		client:   apiclient.New(a.cfg.APIBaseURL),
		metrics:  prometheus.NewRegistry(),
		activity: activitymap.NewRecorder(activitymap.WithDefaultChannel("courier-cli")),
	}

	store, err := a.openStore(ctx, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}

	logger := a.logger.Named("session")
	nav := courier.NavigatorFuncs{
		Home:  func() { logger.Info("navigate", "to", "home") },
		Admin: func() { logger.Info("navigate", "to", "admin") },
		Staff: func() { logger.Info("navigate", "to", "staff") },
	}

	rt.machine, err = courier.NewSessionMachine(store, rt.client, nav,
		courier.WithMachineLogger(logger),
		courier.WithMachineActivitySink(courier.MultiActivitySink(promsink.New(rt.metrics), rt.activity)),
		courier.WithPhoneRegion(a.cfg.PhoneRegion),
		courier.WithProfileValidation(),
		courier.WithPhoneNormalization(),
	)
	if err != nil {
		rt.Close()
		return nil, err
	}

	if _, err := rt.machine.Restore(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

type sessionView struct {
	State    courier.State         `json:"state"`
	Status   courier.Status        `json:"status"`
	Role     courier.Role          `json:"role,omitempty"`
	RoleHint courier.Role          `json:"role_hint,omitempty"`
	Durable  bool                  `json:"durable"`
	Error    string                `json:"error,omitempty"`
	Admin    *courier.AdminProfile `json:"admin,omitempty"`
	Staff    *courier.StaffProfile `json:"staff,omitempty"`
	Token    *tokenView            `json:"token,omitempty"`
}

type tokenView struct {
	Subject   string     `json:"subject,omitempty"`
	Role      string     `json:"role,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired"`
	Opaque    bool       `json:"opaque,omitempty"`
}

func (rt *sessionRuntime) view() sessionView {
	snap := rt.machine.Snapshot()
	v := sessionView{
		State:    snap.State,
		Status:   snap.Status(),
		Role:     snap.Role(),
		RoleHint: snap.Session.RoleHint,
		Durable:  snap.Durable,
		Error:    snap.Session.Error,
		Admin:    snap.Admin(),
		Staff:    snap.Staff(),
	}

	if rt.client.Token() == "" {
		return v
	}
	claims, err := rt.client.Claims()
	if err != nil {
		v.Token = &tokenView{Opaque: true}
		return v
	}
	v.Token = &tokenView{Subject: claims.UserID(), Role: claims.Role()}
	if exp := claims.Expires(); !exp.IsZero() {
		v.Token.ExpiresAt = &exp
		v.Token.Expired, _ = rt.client.Expired()
	}
	return v
}

func (a *app) runSession(cmd *cobra.Command, fn func(ctx context.Context, rt *sessionRuntime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := a.startSession(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	var runErr error
	if fn != nil {
		runErr = fn(ctx, rt)
	}

	fmt.Fprintln(a.out, print.MaybePrettyJSON(rt.view()))
	if a.showActivity {
		fmt.Fprintln(a.out, print.MaybePrettyJSON(rt.activity.Entries()))
	}
	if a.showMetrics {
		fmt.Fprintln(a.out, print.MaybePrettyJSON(rt.gatherMetrics()))
	}
	return runErr
}

type metricSample struct {
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

func (rt *sessionRuntime) gatherMetrics() map[string][]metricSample {
	out := map[string][]metricSample{}
	families, err := rt.metrics.Gather()
	if err != nil {
		return out
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			sample := metricSample{Labels: map[string]string{}}
			for _, lp := range m.GetLabel() {
				sample.Labels[lp.GetName()] = lp.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				sample.Value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				sample.Value = m.GetGauge().GetValue()
			}
			out[mf.GetName()] = append(out[mf.GetName()], sample)
		}
	}
	return out
}

// outcome turns a storage failure kept on the snapshot into a command error.
func outcome(snap courier.Snapshot, err error) error {
	if err != nil {
		return err
	}
	return snap.Err
}

func parseID(raw string) (string, error) {
	if raw == "" {
		return uuid.NewString(), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return id.String(), nil
}

func newSessionCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and change the persisted session",
	}
	cmd.PersistentFlags().BoolVar(&a.showMetrics, "metrics", false, "print session activity metrics")
	cmd.PersistentFlags().BoolVar(&a.showActivity, "activity", false, "print the session activity log")
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Restore and print the persisted session",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.runSession(cmd, nil)
			},
		},
		newLoginAdminCommand(a),
		newLoginStaffCommand(a),
		&cobra.Command{
			Use:   "role ROLE",
			Short: "Set the pre-login role hint",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runSession(cmd, func(ctx context.Context, rt *sessionRuntime) error {
					role, ok := courier.ParseRole(args[0])
					if !ok {
						return fmt.Errorf("%w: unknown role %q", courier.ErrInvalidEvent, args[0])
					}
					return outcome(rt.machine.SetRole(ctx, role))
				})
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Log out and clear the persisted session",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.runSession(cmd, func(ctx context.Context, rt *sessionRuntime) error {
					return outcome(rt.machine.Logout(ctx))
				})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Clear every persisted session slot, even stale ones",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.runSession(cmd, func(ctx context.Context, rt *sessionRuntime) error {
					return outcome(rt.machine.HardReset(ctx))
				})
			},
		},
	)
	return cmd
}

func newLoginAdminCommand(a *app) *cobra.Command {
	var id, email, name, tenant, token string
	cmd := &cobra.Command{
		Use:   "login-admin",
		Short: "Persist an administrator session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			uid, err := parseID(id)
			if err != nil {
				return err
			}
			admin := &courier.AdminProfile{ID: uid, Email: email, Name: name, TenantID: tenant}
			return a.runSession(cmd, func(ctx context.Context, rt *sessionRuntime) error {
				return outcome(rt.machine.LoginAdmin(ctx, admin, token))
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "admin id (random when empty)")
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	return cmd
}

func newLoginStaffCommand(a *app) *cobra.Command {
	var id, name, phone, tenant, qr, token string
	cmd := &cobra.Command{
		Use:   "login-staff",
		Short: "Persist a delivery staff session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			uid, err := parseID(id)
			if err != nil {
				return err
			}
			staff := &courier.StaffProfile{ID: uid, Name: name, Phone: phone, TenantID: tenant, QRCode: qr}
			return a.runSession(cmd, func(ctx context.Context, rt *sessionRuntime) error {
				return outcome(rt.machine.LoginStaff(ctx, staff, token))
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "staff id (random when empty)")
	cmd.Flags().StringVar(&name, "name", "", "staff name")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&qr, "qr", "", "QR login code")
	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	return cmd
}
