package api

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func do(t *testing.T, s *Server, method, path, body string) *fasthttp.RequestCtx {
	t.Helper()
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	if body != "" {
		req.SetBodyString(body)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	s.Handle(ctx)
	return ctx
}

func decodeError(t *testing.T, ctx *fasthttp.RequestCtx) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &e))
	assert.Equal(t, ctx.Response.StatusCode(), e.Status)
	return e
}

func TestHealthz(t *testing.T) {
	ctx := do(t, NewServer(nil), "GET", "/healthz", "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"status":"ok"}`, string(ctx.Response.Body()))
}

func TestModel_Defaults(t *testing.T) {
	ctx := do(t, NewServer(nil), "POST", "/v1/model", "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))

	var body map[string]any
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	assert.Equal(t, true, body["dscr_defined"])
	assert.Len(t, body["annual_data"], 20)
	assert.NotNil(t, body["equity_irr"])
}

func TestModel_Override(t *testing.T) {
	ctx := do(t, NewServer(nil), "POST", "/v1/model", `{"debt":{"debt_ratio":0}}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var body map[string]any
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	assert.Equal(t, false, body["dscr_defined"])
	assert.Nil(t, body["min_dscr"])
	assert.Equal(t, 0.0, body["debt_usd"])
}

func TestModel_Errors(t *testing.T) {
	s := NewServer(nil)

	ctx := do(t, s, "POST", "/v1/model", `{not json`)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	assert.Contains(t, decodeError(t, ctx).Message, "Invalid request body")

	ctx = do(t, s, "POST", "/v1/model", `{"cf_p50": 3, "nope": 1}`)
	assert.Equal(t, fasthttp.StatusUnprocessableEntity, ctx.Response.StatusCode())
	msg := decodeError(t, ctx).Message
	assert.Contains(t, msg, "Scenario validation failed")
	assert.Contains(t, msg, "[request.cf_p50]")
	assert.Contains(t, msg, "unknown parameter 'nope'")

	ctx = do(t, s, "GET", "/v1/model", "")
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, ctx.Response.StatusCode())

	ctx = do(t, s, "GET", "/v2/other", "")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestScenarios(t *testing.T) {
	s := NewServer(nil)
	ctx := do(t, s, "POST", "/v1/scenarios",
		`{"scenarios":[{"name":"base"},{"name":"low","params":{"tariff_lkr_kwh":17}}]}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))

	var body struct {
		Rows []struct {
			Scenario string `json:"scenario"`
			Summary  struct {
				NPV float64 `json:"npv_12pct"`
			} `json:"summary"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	require.Len(t, body.Rows, 2)
	assert.Equal(t, "base", body.Rows[0].Scenario)
	assert.Equal(t, "low", body.Rows[1].Scenario)
	assert.Greater(t, body.Rows[0].Summary.NPV, body.Rows[1].Summary.NPV)
}

func TestScenarios_Errors(t *testing.T) {
	s := NewServer(nil)

	ctx := do(t, s, "POST", "/v1/scenarios", `{"scenarios":[]}`)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	ctx = do(t, s, "POST", "/v1/scenarios", `{"scenarios":7}`)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	ctx = do(t, s, "POST", "/v1/scenarios", `{"scenarios":[{"name":"x","params":{"tax_rate":4}}]}`)
	assert.Equal(t, fasthttp.StatusUnprocessableEntity, ctx.Response.StatusCode())
	assert.Contains(t, decodeError(t, ctx).Message, "scenario:x")
}

func TestTornado(t *testing.T) {
	ctx := do(t, NewServer(nil), "POST", "/v1/tornado", `{"metric":"npv","sort":"abs"}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))

	var body struct {
		Metric string `json:"metric"`
		Bars   []struct {
			Parameter string  `json:"parameter"`
			AbsSwing  float64 `json:"abs_swing"`
		} `json:"bars"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	assert.Equal(t, "npv", body.Metric)
	require.NotEmpty(t, body.Bars)
	for i := 1; i < len(body.Bars); i++ {
		assert.GreaterOrEqual(t, body.Bars[i-1].AbsSwing, body.Bars[i].AbsSwing)
	}
}

func TestTornado_BadMetric(t *testing.T) {
	ctx := do(t, NewServer(nil), "POST", "/v1/tornado", `{"metric":"ebitda"}`)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	assert.Contains(t, decodeError(t, ctx).Message, "unknown tornado metric")
}
