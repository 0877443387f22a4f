package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

// newInmemoryConn serves handler on an in-memory listener and returns a
// connection manager dialing it.
func newInmemoryConn(t *testing.T, handler fasthttp.RequestHandler) *ConnectionManager {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() {
		_ = fasthttp.Serve(ln, handler)
	}()
	t.Cleanup(func() { _ = ln.Close() })

	return NewConnectionManagerWithDialer(DefaultConnectionConfig(), func(string) (net.Conn, error) {
		return ln.Dial()
	})
}

func testDataForSEOConfig() DataForSEOConfig {
	cfg := DefaultDataForSEOConfig()
	cfg.BaseURL = "http://dataforseo.test"
	cfg.Login = "user@example.com"
	cfg.Password = "secret"
	return cfg
}

const searchVolumeBody = `{
  "status_code": 20000,
  "status_message": "Ok.",
  "tasks": [{
    "status_code": 20000,
    "data": {"keywords": ["crm software"]},
    "result": [
      {"keyword": "crm software", "search_volume": 12100, "cpc": 31.5, "competition": "HIGH", "competition_index": 47},
      {"keyword": "crm tools", "search_volume": null, "cpc": null, "competition": 0.42, "competition_level": "MEDIUM"},
      {"keyword": "", "search_volume": 10}
    ]
  }]
}`

func TestDataForSEOClient_SearchVolume(t *testing.T) {
	var captured []keywordsTask
	var path, auth string

	conn := newInmemoryConn(t, func(ctx *fasthttp.RequestCtx) {
		path = string(ctx.Path())
		auth = string(ctx.Request.Header.Peek("Authorization"))
		_ = json.Unmarshal(ctx.PostBody(), &captured)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(searchVolumeBody)
	})
	client := NewDataForSEOClient(testDataForSEOConfig(), conn)

	entries, err := client.SearchVolume(context.Background(), []string{"  CRM Software ", "bad\tkeyword", ""})
	require.NoError(t, err)

	assert.Equal(t, searchVolumePath, path)
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("user@example.com:secret")), auth)
	require.Len(t, captured, 1)
	assert.Equal(t, []string{"crm software"}, captured[0].Keywords)
	assert.Equal(t, 2840, captured[0].LocationCode)
	assert.Equal(t, "en", captured[0].LanguageCode)

	require.Len(t, entries, 2)
	assert.Equal(t, "crm software", entries[0].Keyword)
	assert.Equal(t, 12100, entries[0].SearchVolume)
	assert.Equal(t, 31.5, entries[0].CPC)
	assert.Equal(t, 0.8, entries[0].Competition)
	assert.Equal(t, "HIGH", entries[0].CompetitionLevel)

	assert.Equal(t, 0, entries[1].SearchVolume)
	assert.Equal(t, 0.42, entries[1].Competition)
	assert.Equal(t, "MEDIUM", entries[1].CompetitionLevel)
}

func TestDataForSEOClient_SearchVolumeRejectsEmptyInput(t *testing.T) {
	client := NewDataForSEOClient(testDataForSEOConfig(), NewConnectionManager(DefaultConnectionConfig()))
	_, err := client.SearchVolume(context.Background(), []string{" ", "\n"})
	assert.Error(t, err)
}

func TestDataForSEOClient_RelatedKeywordsLimitsSeeds(t *testing.T) {
	var captured []map[string]interface{}
	conn := newInmemoryConn(t, func(ctx *fasthttp.RequestCtx) {
		_ = json.Unmarshal(ctx.PostBody(), &captured)
		ctx.SetBodyString(`{"status_code":20000,"tasks":[{"status_code":20000,"result":[{"keyword":"crm for startups","search_volume":900,"cpc":12.0,"competition":0.3}]}]}`)
	})
	client := NewDataForSEOClient(testDataForSEOConfig(), conn)

	seeds := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	entries, err := client.RelatedKeywords(context.Background(), seeds)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.Len(t, captured, 1)
	assert.Len(t, captured[0]["keywords"], 10)
	assert.Equal(t, false, captured[0]["include_serp_info"])
}

func TestDataForSEOClient_SERP(t *testing.T) {
	var captured []serpTask
	conn := newInmemoryConn(t, func(ctx *fasthttp.RequestCtx) {
		_ = json.Unmarshal(ctx.PostBody(), &captured)
		ctx.SetBodyString(`{"status_code":20000,"tasks":[{"status_code":20000,
			"data":{"keyword":"crm software"},
			"result":[{"keyword":"crm software","items":[
				{"type":"paid","url":"https://ads.example"},
				{"type":"organic","url":"https://www.salesforce.com/crm/","title":"CRM","rank_group":1,"rank_absolute":2},
				{"type":"organic","url":"https://hubspot.com/","title":"HubSpot","rank_absolute":3}
			]}]}]}`)
	})
	client := NewDataForSEOClient(testDataForSEOConfig(), conn)

	responses, err := client.SERP(context.Background(), []string{"crm software", "crm tools"})
	require.NoError(t, err)

	require.Len(t, captured, 1)
	assert.Equal(t, "crm software", captured[0].Keyword)
	assert.Equal(t, "desktop", captured[0].Device)
	assert.Equal(t, "windows", captured[0].OS)

	require.Len(t, responses, 1)
	assert.Equal(t, "crm software", responses[0].Keyword)
	require.Len(t, responses[0].Items, 3)
	assert.Equal(t, 1, responses[0].Items[1].Position)
	assert.Equal(t, 3, responses[0].Items[2].Position)
}

func TestDataForSEOClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected ErrorKind
	}{
		{"http unauthorized", fasthttp.StatusUnauthorized, `{}`, ErrorKindAuth},
		{"api level error", fasthttp.StatusOK, `{"status_code":40100,"status_message":"You are not authorized"}`, ErrorKindAuth},
		{"malformed body", fasthttp.StatusOK, `not json`, ErrorKindDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newInmemoryConn(t, func(ctx *fasthttp.RequestCtx) {
				ctx.SetStatusCode(tt.status)
				ctx.SetBodyString(tt.body)
			})
			client := NewDataForSEOClient(testDataForSEOConfig(), conn)

			_, err := client.SearchVolume(context.Background(), []string{"crm"})
			require.Error(t, err)
			assert.Equal(t, tt.expected, NewUpstreamErrorClassifier().Classify(err))
		})
	}
}

func TestDataForSEOClient_CheckCredentials(t *testing.T) {
	conn := newInmemoryConn(t, func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) != userDataPath || !ctx.IsGet() {
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			return
		}
		ctx.SetBodyString(`{"status_code":20000,"tasks":[{"status_code":20000,"result":[{"login":"user@example.com","money":{"balance":42.5}}]}]}`)
	})
	client := NewDataForSEOClient(testDataForSEOConfig(), conn)

	info, err := client.CheckCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", info.Login)
	assert.Equal(t, 42.5, info.Balance)
}

func TestDataForSEOClient_CheckCredentialsRequiresLogin(t *testing.T) {
	cfg := testDataForSEOConfig()
	cfg.Password = ""
	client := NewDataForSEOClient(cfg, NewConnectionManager(DefaultConnectionConfig()))

	_, err := client.CheckCredentials(context.Background())
	assert.Error(t, err)
}

func TestDataForSEOParser_TaskDataArray(t *testing.T) {
	body := []byte(`{"status_code":20000,"tasks":[{"status_code":20000,
		"data":[{"keyword":"crm"}],
		"result":[{"items":[{"type":"organic","url":"https://a.com","rank_absolute":1}]}]}]}`)

	responses, err := NewDataForSEOParser().ParseSERP(body)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "crm", responses[0].Keyword)
}

func TestDataForSEOParser_AllTasksFailed(t *testing.T) {
	body := []byte(`{"status_code":20000,"tasks":[{"status_code":40501,"status_message":"Invalid Field"}]}`)

	_, err := NewDataForSEOParser().ParseMetrics(body)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 40501, statusErr.StatusCode)
}
