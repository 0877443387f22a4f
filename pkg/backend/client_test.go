package backend

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"keyword-research-go/pkg/api"
	"keyword-research-go/pkg/cluster"
	"keyword-research-go/pkg/keyword"
	"keyword-research-go/pkg/report"
)

func newInmemoryConn(t *testing.T, handler fasthttp.RequestHandler) *api.ConnectionManager {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() {
		_ = fasthttp.Serve(ln, handler)
	}()
	t.Cleanup(func() { _ = ln.Close() })

	return api.NewConnectionManagerWithDialer(api.DefaultConnectionConfig(), func(string) (net.Conn, error) {
		return ln.Dial()
	})
}

func testReport() *report.Report {
	shared := &keyword.Record{
		Keyword:         "running shoes",
		SearchVolume:    5000,
		CPC:             1.2,
		Difficulty:      40,
		CommercialScore: 9000,
		IsSeed:          true,
		SerpURLs:        []keyword.ResultDescriptor{{URL: "https://www.nike.com/running", Domain: "nike.com", Position: 1}},
	}
	c1 := &cluster.Cluster{ID: 1, MainKeyword: "running shoes", Theme: keyword.ThemeGeneral,
		Keywords: []*keyword.Record{shared, {Keyword: "trail running shoes", SearchVolume: 300}}}
	c2 := &cluster.Cluster{ID: 2, MainKeyword: "Running Shoes", Theme: keyword.ThemeGeneral,
		Keywords: []*keyword.Record{{Keyword: "Running Shoes", SearchVolume: 5000}}}

	return &report.Report{
		Clusters:    []*cluster.Cluster{c1, c2},
		Competitors: []string{"nike.com"},
		Summary:     report.RunSummary{SourceTopic: "running shoes", TotalKeywords: 3},
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.URL = "http://backend.test/"
	cfg.APIKey = "backend-key"
	return cfg
}

func TestDataConverter_ConvertReport(t *testing.T) {
	sub := NewDataConverter().ConvertReport("run-1", testReport())

	assert.Equal(t, "run-1", sub.RunID)
	require.Len(t, sub.Keywords, 2)
	assert.Equal(t, "running shoes", sub.Keywords[0].Keyword)
	assert.Equal(t, "https://www.nike.com/running", sub.Keywords[0].URL)
	assert.Equal(t, 1, sub.Keywords[0].ClusterID)
	assert.Equal(t, 9000, sub.Keywords[0].Metrics.CommercialScore)
	assert.True(t, sub.Keywords[0].Metrics.IsSeed)
	assert.Equal(t, "trail running shoes", sub.Keywords[1].Keyword)
	assert.Empty(t, sub.Keywords[1].URL)
}

func TestPublisher_Publish(t *testing.T) {
	var path, apiKey, encoding string
	var received ReportSubmission

	conn := newInmemoryConn(t, func(ctx *fasthttp.RequestCtx) {
		path = string(ctx.Path())
		apiKey = string(ctx.Request.Header.Peek("X-API-Key"))
		encoding = string(ctx.Request.Header.Peek("Content-Encoding"))

		zr, err := gzip.NewReader(bytes.NewReader(ctx.PostBody()))
		if err == nil {
			body, _ := io.ReadAll(zr)
			_ = json.Unmarshal(body, &received)
		}
		ctx.SetBodyString(`{"code":0,"message":"ok"}`)
	})

	p, err := NewPublisher(testConfig(), conn)
	require.NoError(t, err)

	resp, err := p.Publish(context.Background(), "run-1", testReport())
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Message)

	assert.Equal(t, reportsPath, path)
	assert.Equal(t, "backend-key", apiKey)
	assert.Equal(t, "gzip", encoding)
	assert.Equal(t, "run-1", received.RunID)
	assert.Len(t, received.Keywords, 2)
}

func TestPublisher_PlainBody(t *testing.T) {
	var received ReportSubmission
	conn := newInmemoryConn(t, func(ctx *fasthttp.RequestCtx) {
		_ = json.Unmarshal(ctx.PostBody(), &received)
		ctx.SetBodyString(`{"code":0}`)
	})

	cfg := testConfig()
	cfg.EnableGzip = false
	p, err := NewPublisher(cfg, conn)
	require.NoError(t, err)

	_, err = p.Publish(context.Background(), "run-2", testReport())
	require.NoError(t, err)
	assert.Equal(t, "run-2", received.RunID)
}

func TestPublisher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   api.ErrorKind
	}{
		{"server error", fasthttp.StatusInternalServerError, "down", api.ErrorKindServer},
		{"unauthorized", fasthttp.StatusUnauthorized, "no", api.ErrorKindAuth},
		{"bad body", fasthttp.StatusOK, "not json", api.ErrorKindDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newInmemoryConn(t, func(ctx *fasthttp.RequestCtx) {
				ctx.SetStatusCode(tt.status)
				ctx.SetBodyString(tt.body)
			})
			p, err := NewPublisher(testConfig(), conn)
			require.NoError(t, err)

			_, err = p.Publish(context.Background(), "run", testReport())
			require.Error(t, err)
			assert.Equal(t, tt.kind, api.NewUpstreamErrorClassifier().Classify(err))
		})
	}
}

func TestPublisher_RejectedCode(t *testing.T) {
	conn := newInmemoryConn(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`{"code":1001,"message":"duplicate run"}`)
	})
	p, err := NewPublisher(testConfig(), conn)
	require.NoError(t, err)

	resp, err := p.Publish(context.Background(), "run", testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate run")
	assert.Equal(t, 1001, resp.Code)
}

func TestNewPublisher_Validation(t *testing.T) {
	conn := api.NewConnectionManager(api.DefaultConnectionConfig())

	_, err := NewPublisher(Config{APIKey: "k"}, conn)
	assert.Error(t, err)

	_, err = NewPublisher(Config{URL: "http://backend.test"}, conn)
	assert.Error(t, err)
}
