package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"option-data/internal/columnar"
	"option-data/internal/schema"
	"option-data/internal/theta"
)

const baseURL = "http://test/v2"

type fakeResp struct {
	status int
	body   string
}

// fakeTransport serves canned pages by exact URL. Safe for the concurrent
// fetch pair.
type fakeTransport struct {
	mu    sync.Mutex
	pages map[string]fakeResp
	calls []string
}

func (f *fakeTransport) Get(_ context.Context, url string, _ map[string]string) (int, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	r, ok := f.pages[url]
	if !ok {
		return 404, []byte("not found"), nil
	}
	return r.status, []byte(r.body), nil
}

const quoteFormat = `["ms_of_day","bid_size","bid_exchange","bid","bid_condition","ask_size","ask_exchange","ask","ask_condition","date"]`

func tick(ms int, bid, ask float64) string {
	return fmt.Sprintf(`[%d,10,1,%g,0,12,1,%g,0,20231103]`, ms, bid, ask)
}

func optionItem(exp, strike int, right, ticks string) string {
	return fmt.Sprintf(`{"ticks":[%s],"contract":{"root":"AAPL","expiration":%d,"strike":%d,"right":%q}}`, ticks, exp, strike, right)
}

func envelope(next, response string) string {
	return fmt.Sprintf(`{"header":{"latency_ms":3,"format":%s,"next_page":%q},"response":[%s]}`, quoteFormat, next, response)
}

func testRequest() Request {
	return Request{
		Option: theta.OptionRequest{
			Root:      "AAPL",
			StartDate: 20231103,
			EndDate:   20231103,
			Shape:     schema.ShapeQuote,
		},
		MaxDTE:  30,
		BasePct: 0.1,
	}
}

// fixtureTransport wires a two-page option dataset and a one-page underlying
// dataset. The $150 strike tick joins the underlying at 34200000 and
// survives; the $250 strike is out of the moneyness band and the May
// expiration is past the DTE window.
func fixtureTransport(req Request) *fakeTransport {
	optURL := req.Option.URL(baseURL)
	stkURL := theta.StockFromOption(req.Option).URL(baseURL)
	return &fakeTransport{pages: map[string]fakeResp{
		optURL: {200, envelope("http://test/v2/opt/2",
			optionItem(20231117, 1500000, "C", tick(34200000, 4.90, 5.10)))},
		"http://test/v2/opt/2": {200, envelope("",
			optionItem(20231117, 2500000, "C", tick(34200000, 0.01, 0.03))+","+
				optionItem(20240503, 1500000, "P", tick(34200000, 4.90, 5.10)))},
		stkURL: {200, envelope("",
			tick(34200000, 149.95, 150.05)+","+tick(34205000, 150.00, 150.10))},
	}}
}

func newTestPipeline(ft *fakeTransport, maxPages int) *Pipeline {
	client := theta.NewClient(ft, theta.ClientConfig{BaseURL: baseURL, MaxPages: maxPages}, nil)
	return New(client, 2, columnar.DefaultCodec, nil)
}

func TestRunProducesBothArtifacts(t *testing.T) {
	req := testRequest()
	p := newTestPipeline(fixtureTransport(req), 0)

	out, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.NotEmpty(t, out.RunID)
	assert.False(t, out.Truncated)
	assert.Empty(t, out.Padded)
	// 1 surviving option tick + 2 underlying rows.
	assert.EqualValues(t, 3, out.Rows)
	assert.Equal(t, "historical-option/quote/AAPL/2023/11/03/data.parquet", out.Parquet.Key)
	assert.Equal(t, "historical-option/quote/AAPL/2023/11/03/data.ipc", out.IPC.Key)

	pqSchema, pqRows, err := columnar.DecodeParquet(out.Parquet.Data)
	require.NoError(t, err)
	ipSchema, ipRows, err := columnar.DecodeIPC(out.IPC.Data)
	require.NoError(t, err)
	assert.EqualValues(t, 3, pqRows)
	assert.EqualValues(t, 3, ipRows)
	require.Equal(t, pqSchema.NumFields(), ipSchema.NumFields())
	for i := 0; i < pqSchema.NumFields(); i++ {
		assert.Equal(t, pqSchema.Field(i).Name, ipSchema.Field(i).Name)
	}
}

func TestRunSurfacesNoData(t *testing.T) {
	req := testRequest()
	ft := fixtureTransport(req)
	ft.pages[req.Option.URL(baseURL)] = fakeResp{472, "No data for the specified timeframe & contract."}

	_, err := newTestPipeline(ft, 0).Run(context.Background(), req)
	require.Error(t, err)
	assert.True(t, theta.IsNoData(err))
}

func TestRunAbortsWhenStockFetchFails(t *testing.T) {
	req := testRequest()
	ft := fixtureTransport(req)
	ft.pages[theta.StockFromOption(req.Option).URL(baseURL)] = fakeResp{503, "upstream down"}

	out, err := newTestPipeline(ft, 0).Run(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, out, "no partial merge on fetch failure")
	assert.Contains(t, err.Error(), "stock fetch")
}

func TestRunEmptyDatasetsYieldZeroRowArtifacts(t *testing.T) {
	req := testRequest()
	ft := &fakeTransport{pages: map[string]fakeResp{
		req.Option.URL(baseURL):                        {200, envelope("", "")},
		theta.StockFromOption(req.Option).URL(baseURL): {200, envelope("", "")},
	}}

	out, err := newTestPipeline(ft, 0).Run(context.Background(), req)
	require.NoError(t, err)
	assert.EqualValues(t, 0, out.Rows)

	_, rows, err := columnar.DecodeParquet(out.Parquet.Data)
	require.NoError(t, err)
	assert.Zero(t, rows)
	_, rows, err = columnar.DecodeIPC(out.IPC.Data)
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestRunReportsTruncation(t *testing.T) {
	req := testRequest()

	out, err := newTestPipeline(fixtureTransport(req), 1).Run(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, out.Truncated)
	// Only the first option page's contract can survive.
	assert.EqualValues(t, 3, out.Rows)
}

func TestFilteredRecords(t *testing.T) {
	req := testRequest()

	records, err := newTestPipeline(fixtureTransport(req), 0).FilteredRecords(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint32(1500000), records[0].Contract.Strike)
	assert.Equal(t, "C", records[0].Contract.Right)
	assert.Equal(t, float64(34200000), records[0].Tick[0])
}
