package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/godispatch/core/api/v1"
)

var _ = Describe("remote commands", func() {
	var (
		ts     *httptest.Server
		probes []v1.ProbeRequest
	)

	BeforeEach(func() {
		probes = nil
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v1/stats", func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(v1.Stats{Limit: 4, Running: 2, Failed: 3, StartedAt: time.Now()})
		})
		mux.HandleFunc("GET /api/v1/failures", func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Query().Get("limit")).To(Equal("5"))
			msg := "boom"
			_ = json.NewEncoder(w).Encode(v1.FailureListResponse{
				Total:    3,
				Failures: []v1.Failure{{Id: "a", Kind: v1.FailureKindError, Error: &msg, ElapsedMs: 12}},
			})
		})
		mux.HandleFunc("POST /api/v1/probe", func(w http.ResponseWriter, r *http.Request) {
			var req v1.ProbeRequest
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			probes = append(probes, req)
			w.WriteHeader(http.StatusAccepted)
		})
		ts = httptest.NewServer(mux)
	})

	AfterEach(func() {
		ts.Close()
	})

	run := func(args ...string) (string, error) {
		root := NewRootCommand()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs(args)
		err := root.Execute()
		return out.String(), err
	}

	It("should print the remote statistics", func() {
		out, err := run("status", "--url="+ts.URL)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("running     2/4"))
		Expect(out).To(ContainSubstring("failed      3"))
		Expect(out).To(ContainSubstring("0 pending, 3 stored"))
		Expect(out).To(ContainSubstring("boom"))
	})

	It("should post a probe", func() {
		out, err := run("probe", "--url="+ts.URL, "--delay=250ms", "--fail")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("probe accepted"))
		Expect(probes).To(HaveLen(1))
		Expect(probes[0].Delay).To(HaveValue(Equal("250ms")))
		Expect(probes[0].Fail).To(HaveValue(BeTrue()))
	})

	It("should reject a malformed url", func() {
		_, err := run("status", "--url=localhost")

		Expect(err).To(MatchError(ContainSubstring("invalid dispatcher url")))
	})
})
