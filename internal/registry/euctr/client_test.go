package euctr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"TrialSync/internal/config"
	"TrialSync/internal/interfaces"
	"TrialSync/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPageFixture = `<html><body>
<table class="list">
  <tr class="result">
    <td><a href="/ctr-search/trial?eudractNumber=2022-001234-56">EudraCT Number: 2022-001234-56</a></td>
    <td class="trialTitle">Percutaneous Valve Repair Study</td>
    <td class="condition">Mitral Regurgitation</td>
    <td class="status">Ongoing</td>
    <td class="sponsor">Veltrix Medical</td>
    <td class="date start">2022-05-10</td>
    <td class="date end">2025-01-31</td>
  </tr>
  <tr class="result">
    <td>2023-004321-09</td>
    <td class="trialTitle">Wearable ECG Patch Trial</td>
    <td class="status">Completed</td>
  </tr>
  <tr class="result">
    <td class="other">neither id nor title</td>
  </tr>
</table>
</body></html>`

const detailPageFixture = `<html><body>
<table>
  <tr><td>Trial Type</td><td>Interventional clinical trial</td></tr>
  <tr><td>Date of the global end of the trial</td><td>2025-06-30</td></tr>
</table>
</body></html>`

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func testClient(baseURL string, maxDetails int) interfaces.RegistryClient {
	return NewClient(&config.RegistryConfig{
		BaseURL:     baseURL,
		Timeout:     5,
		DetailDelay: 1, // 测试里把限速间隔压到最小
		MaxDetails:  maxDetails,
	}, testLogger())
}

func TestFetchBatchParsesSearchPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "medtech", r.URL.Query().Get("query"))
		fmt.Fprint(w, searchPageFixture)
	}))
	defer server.Close()

	raws, err := testClient(server.URL, 0).FetchBatch(context.Background(), "medtech", 10, interfaces.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, raws, 2)

	first, ok := raws[0].Data.(model.EUCTRTrial)
	require.True(t, ok)
	assert.Equal(t, "2022-001234-56", first.EudraCTID)
	assert.Equal(t, "Percutaneous Valve Repair Study", first.PublicTitle)
	assert.Equal(t, "Mitral Regurgitation", first.Condition)
	assert.Equal(t, "Ongoing", first.Status)
	assert.Equal(t, "Veltrix Medical", first.MainSponsor)
	assert.Equal(t, "2022-05-10", first.StartDate)
	assert.Equal(t, "2025-01-31", first.CompletionDate)

	// 第二行没有eudractNumber链接，靠整行文本里的固定格式兜底
	second, ok := raws[1].Data.(model.EUCTRTrial)
	require.True(t, ok)
	assert.Equal(t, "2023-004321-09", second.EudraCTID)
	assert.Equal(t, "Wearable ECG Patch Trial", second.PublicTitle)
}

func TestFetchBatchEnrichesFromDetailPage(t *testing.T) {
	var detailCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/ctr-search/search", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, searchPageFixture)
	})
	mux.HandleFunc("/ctr-search/trial", func(w http.ResponseWriter, _ *http.Request) {
		detailCalls.Add(1)
		fmt.Fprint(w, detailPageFixture)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	raws, err := testClient(server.URL+"/ctr-search/search", 10).FetchBatch(context.Background(), "medtech", 10, interfaces.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.Equal(t, int32(1), detailCalls.Load()) // 只有第一行带详情页链接

	first := raws[0].Data.(model.EUCTRTrial)
	assert.Equal(t, "Interventional clinical trial", first.StudyType)
	// 行级已有完成日期，详情页不覆盖
	assert.Equal(t, "2025-01-31", first.CompletionDate)
}

func TestFetchBatchDetailFailureDegradesToRowData(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ctr-search/search", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, searchPageFixture)
	})
	mux.HandleFunc("/ctr-search/trial", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	raws, err := testClient(server.URL+"/ctr-search/search", 10).FetchBatch(context.Background(), "medtech", 10, interfaces.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, raws, 2)

	first := raws[0].Data.(model.EUCTRTrial)
	assert.Empty(t, first.StudyType)
	assert.Equal(t, "Percutaneous Valve Repair Study", first.PublicTitle)
}

func TestFetchBatchUnrecognizedStructureReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><p>We have redesigned our website!</p></body></html>`)
	}))
	defer server.Close()

	raws, err := testClient(server.URL, 0).FetchBatch(context.Background(), "medtech", 10, interfaces.FetchOptions{})
	require.NoError(t, err)
	assert.Empty(t, raws)
}

func TestFetchBatchNetworkFailureIsSourceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	server.Close() // 直接拒绝连接

	_, err := testClient(server.URL, 0).FetchBatch(context.Background(), "medtech", 10, interfaces.FetchOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestFetchBatchBadStatusIsSourceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testClient(server.URL, 0).FetchBatch(context.Background(), "medtech", 10, interfaces.FetchOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestFetchBatchHonorsMaxRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, searchPageFixture)
	}))
	defer server.Close()

	raws, err := testClient(server.URL, 0).FetchBatch(context.Background(), "medtech", 1, interfaces.FetchOptions{})
	require.NoError(t, err)
	assert.Len(t, raws, 1)
}

func TestFetchBatchSampleModeSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	raws, err := testClient(server.URL, 0).FetchBatch(context.Background(), "medtech", 2, interfaces.FetchOptions{SampleMode: true})
	require.NoError(t, err)
	assert.Len(t, raws, 2)
	assert.Equal(t, int32(0), calls.Load())
}

func TestWaitTurnEnforcesMinimumInterval(t *testing.T) {
	client := NewClient(&config.RegistryConfig{DetailDelay: 300}, testLogger()).(*Client)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, client.waitTurn(context.Background()))
	}
	// 第一次立即放行，后两次各等满最小间隔
	assert.GreaterOrEqual(t, time.Since(start), 600*time.Millisecond)
}

func TestWaitTurnHonorsContextCancel(t *testing.T) {
	client := NewClient(&config.RegistryConfig{DetailDelay: 60000}, testLogger()).(*Client)
	require.NoError(t, client.waitTurn(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, client.waitTurn(ctx), context.Canceled)
}

func TestFetchBatchInvalidInputSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := testClient(server.URL, 0)

	raws, err := client.FetchBatch(context.Background(), "", 10, interfaces.FetchOptions{})
	require.NoError(t, err)
	assert.Empty(t, raws)

	raws, err = client.FetchBatch(context.Background(), "medtech", 0, interfaces.FetchOptions{})
	require.NoError(t, err)
	assert.Empty(t, raws)

	assert.Equal(t, int32(0), calls.Load())
}
