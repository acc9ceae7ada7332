package client_test

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	v1 "github.com/godispatch/core/api/v1"
	"github.com/godispatch/core/internal/config"
	"github.com/godispatch/core/internal/handlers"
	"github.com/godispatch/core/internal/server"
	"github.com/godispatch/core/internal/services"
	"github.com/godispatch/core/internal/store"
	"github.com/godispatch/core/pkg/client"
	srvErrors "github.com/godispatch/core/pkg/errors"
)

var _ = Describe("Client", func() {
	var (
		ctx    context.Context
		db     *sql.DB
		svc    *services.Dispatcher
		ts     *httptest.Server
		secret = []byte("client-secret")
	)

	token := func(key []byte) string {
		t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		s, err := t.SignedString(key)
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())
		st := store.NewStore(db)
		Expect(st.Migrate(ctx)).To(Succeed())

		cfg, err := config.NewConfigurationWithDefaults()
		Expect(err).NotTo(HaveOccurred())
		cfg.Batch.FlushInterval = 10 * time.Millisecond
		cfg.Dispatcher.ShutdownTimeout = 5 * time.Second

		path := filepath.Join(GinkgoT().TempDir(), "secret")
		Expect(os.WriteFile(path, secret, 0o600)).To(Succeed())
		cfg.Auth.Enabled = true
		cfg.Auth.SecretFile = path

		svc, err = services.NewDispatcher(cfg, st, nil)
		Expect(err).NotTo(HaveOccurred())

		srv, err := server.NewServer(cfg, prometheus.NewRegistry(), handlers.New(svc).Register)
		Expect(err).NotTo(HaveOccurred())
		ts = httptest.NewServer(srv.Handler())
	})

	AfterEach(func() {
		ts.Close()
		Expect(svc.Shutdown(ctx)).To(Succeed())
		db.Close()
	})

	It("should reject an invalid url", func() {
		_, err := client.NewClient("not a url", "")
		Expect(err).To(HaveOccurred())
	})

	It("should report unauthorized requests", func() {
		c, err := client.NewClient(ts.URL, token([]byte("wrong")))
		Expect(err).NotTo(HaveOccurred())

		_, err = c.Stats(ctx)

		Expect(srvErrors.IsUnauthorizedError(err)).To(BeTrue())
	})

	It("should post probes and read the journal", func() {
		// Given
		c, err := client.NewClient(ts.URL+"/", token(secret))
		Expect(err).NotTo(HaveOccurred())
		fail := true

		// When
		Expect(c.Probe(ctx, v1.ProbeRequest{Fail: &fail})).To(Succeed())
		Expect(c.Probe(ctx, v1.ProbeRequest{})).To(Succeed())

		// Then
		Eventually(func() int {
			resp, err := c.ListFailures(ctx, v1.GetFailuresParams{})
			Expect(err).NotTo(HaveOccurred())
			return resp.Total
		}).Should(Equal(1))

		cancelled := false
		limit := 5
		since := time.Now().Add(-time.Hour)
		resp, err := c.ListFailures(ctx, v1.GetFailuresParams{Cancelled: &cancelled, Since: &since, Limit: &limit})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Failures).To(HaveLen(1))
		Expect(resp.Failures[0].Kind).To(Equal(v1.FailureKindError))

		f, err := c.GetFailure(ctx, resp.Failures[0].Id)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Error).To(HaveValue(Equal(services.ErrProbeFailed.Error())))

		stats, err := c.Stats(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Failed).To(BeNumerically("==", 1))
		Expect(stats.Processed).To(BeNumerically(">=", 1))
	})

	It("should map missing failures to ResourceNotFoundError", func() {
		c, err := client.NewClient(ts.URL, token(secret))
		Expect(err).NotTo(HaveOccurred())

		_, err = c.GetFailure(ctx, "missing")

		Expect(srvErrors.IsResourceNotFoundError(err)).To(BeTrue())
	})

	It("should surface validation errors", func() {
		c, err := client.NewClient(ts.URL, token(secret))
		Expect(err).NotTo(HaveOccurred())
		delay := "forever"

		err = c.Probe(ctx, v1.ProbeRequest{Delay: &delay})

		Expect(err).To(MatchError(ContainSubstring("invalid delay")))
	})
})
