package cli

import (
	"net/http"
	"stocktrack/account"
	"stocktrack/analytics"
	"stocktrack/authority"
	"stocktrack/avatar"
	"stocktrack/bizerror"
	"stocktrack/catalog"
	"stocktrack/client/es"
	"stocktrack/client/s3"
	"stocktrack/config"
	"stocktrack/dataadmin"
	"stocktrack/event"
	"stocktrack/indices"
	"stocktrack/infra/metrics"
	"stocktrack/infra/throttle"
	"stocktrack/infra/tracing"
	"stocktrack/servehttp"
	"stocktrack/session"
	"stocktrack/sessions"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	jprom "github.com/uber/jaeger-lib/metrics/prometheus"
	"golang.org/x/time/rate"
)

func newServeCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.load()
			if err != nil {
				return err
			}
			return serve(c)
		},
	}
	cmd.Flags().String("listen", ":8080", "http listen address")
	_ = opts.v.BindPFlag("listen", cmd.Flags().Lookup("listen"))
	return cmd
}

func serve(c *config.Config) error {
	ds, err := openDatabase(c.Database)
	if err != nil {
		return err
	}
	defer ds.Stop()
	if err := migrate(ds); err != nil {
		return err
	}

	closer, err := tracing.InitGlobalTracer(tracing.Config{
		Enabled:      c.Tracing.Enabled,
		ServiceName:  c.Tracing.ServiceName,
		AgentHost:    c.Tracing.AgentHost,
		SamplerType:  c.Tracing.SamplerType,
		SamplerParam: c.Tracing.SamplerParam,
	}, jprom.New(jprom.WithRegisterer(metrics.Registry)))
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logrus.Warnf("close tracer: %v", err)
		}
	}()

	store := session.NewStore(c.Session.TokenTTL)
	defer store.Close()

	engine, stop, err := buildEngine(c, store)
	if err != nil {
		return err
	}
	defer stop()

	return servehttp.StartHTTPServer(c.Listen, engine, c.ShutdownTimeout)
}

// buildEngine wires every component against the active datasource. The returned stop
// releases background work started here.
func buildEngine(c *config.Config, store *session.Store) (*gin.Engine, func(), error) {
	account.UserCreatedHooks = []func(uid types.ID, tx *gorm.DB) error{authority.CreateDefaultActionPermissions}
	account.RoleChangedHooks = []func(uid types.ID, role account.Role){
		func(uid types.ID, role account.Role) {
			store.UpdateUser(uid, func(s *session.Session) { s.Role = string(role) })
		},
	}
	untrack := sessions.TrackActiveSessions(store)

	analytics.ConfigureCache(c.Analytics.CacheTTL, c.Analytics.CacheSize)

	if c.OSS.Enabled {
		if err := s3.Bootstrap(s3.Config{Endpoint: c.OSS.Endpoint, AccessKey: c.OSS.AccessKey,
			SecretKey: c.OSS.SecretKey, Bucket: c.OSS.Bucket}); err != nil {
			untrack()
			return nil, nil, err
		}
	}

	var crontab *cron.Cron
	if c.Elasticsearch.Enabled {
		if _, err := es.NewClient(es.Config{Addresses: c.Elasticsearch.Addresses, Username: c.Elasticsearch.Username,
			Password: c.Elasticsearch.Password, Debug: c.Elasticsearch.Debug}); err != nil {
			untrack()
			return nil, nil, err
		}
		catalog.SearchProductsFunc = indices.SearchProducts
		event.EventHandlers = append(event.EventHandlers, indices.IndexProductEventHandle)

		var err error
		if crontab, err = indices.StartCron(c.Elasticsearch.SyncCron); err != nil {
			untrack()
			return nil, nil, err
		}
	}

	engine := gin.Default()
	engine.Use(tracing.TracingIngress(), metrics.Middleware(), bizerror.ErrorHandling())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, serviceName)
	})
	engine.GET("/metrics", metrics.Handler())

	searchLimiter := throttle.NewLimiter(rate.Limit(c.Search.Rate), c.Search.Burst, c.Search.Idle)
	guarded := []gin.HandlerFunc{session.SimpleAuthFilter(store), account.ActiveProfileFilter()}

	sessions.RegisterSessionsRestAPI(engine, store)
	sessions.RegisterSessionRestAPI(engine, store, session.SimpleAuthFilter(store))
	account.RegisterProfilesRestAPI(engine, guarded...)
	authority.RegisterPermissionsRestAPI(engine, guarded...)
	catalog.RegisterProductsRestAPI(engine, searchLimiter, guarded...)
	analytics.RegisterAnalyticsRestAPI(engine, guarded...)
	dataadmin.RegisterDataAdminRestAPI(engine, guarded...)
	avatar.RegisterAvatarAPI(engine, guarded...)
	indices.RegisterIndicesRestAPI(engine, guarded...)

	return engine, func() {
		untrack()
		if crontab != nil {
			<-crontab.Stop().Done()
		}
	}, nil
}
