package extract

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/company-analyzer/internal/model"
	"github.com/sells-group/company-analyzer/internal/resilience"
	"github.com/sells-group/company-analyzer/pkg/jina"
)

type mockReader struct {
	mock.Mock
}

func (m *mockReader) Read(ctx context.Context, targetURL string, opts ...jina.ReadOption) (*jina.ReadResponse, error) {
	args := m.Called(ctx, targetURL)
	resp, _ := args.Get(0).(*jina.ReadResponse)
	return resp, args.Error(1)
}

func (m *mockReader) Search(ctx context.Context, query string, opts ...jina.SearchOption) (*jina.SearchResponse, error) {
	args := m.Called(ctx, query)
	resp, _ := args.Get(0).(*jina.SearchResponse)
	return resp, args.Error(1)
}

func fastRetry() resilience.Policy {
	return resilience.Policy{Attempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

func TestScripted_Extract(t *testing.T) {
	reader := new(mockReader)
	reader.On("Read", mock.Anything, "https://shop.myshopify.com").Return(&jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{
			Title:       "Shop ",
			Description: "Handmade goods",
			URL:         "https://shop.myshopify.com/",
			Content:     "Handmade goods  \n\n  Shipping worldwide",
		},
	}, nil).Once()

	ex := NewScriptedExtractor(reader, nil, ScriptedConfig{Retry: fastRetry()})
	res, err := ex.Extract(context.Background(), "https://shop.myshopify.com")

	require.NoError(t, err)
	assert.Equal(t, "Shop", res.Title)
	assert.Equal(t, "Handmade goods", res.MetaDescription)
	assert.Equal(t, "https://shop.myshopify.com/", res.SourceURL)
	assert.Equal(t, "Handmade goods\nShipping worldwide", res.CleanedText)
	assert.Equal(t, model.ExtractorScripted, res.ExtractorUsed)
	reader.AssertExpectations(t)
}

func TestScripted_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   Reason
		calls  int
	}{
		{http.StatusNotFound, ReasonNotFound, 1},
		{http.StatusForbidden, ReasonBlocked, 1},
		{http.StatusServiceUnavailable, ReasonBlocked, 2},
		{http.StatusGatewayTimeout, ReasonTimeout, 2},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			reader := new(mockReader)
			reader.On("Read", mock.Anything, "https://react.dev").
				Return(nil, &jina.StatusError{Op: "read", StatusCode: tt.status})

			ex := NewScriptedExtractor(reader, nil, ScriptedConfig{Retry: fastRetry()})
			_, err := ex.Extract(context.Background(), "https://react.dev")

			var xe *Error
			require.True(t, errors.As(err, &xe), "got %v", err)
			assert.Equal(t, tt.want, xe.Reason)
			reader.AssertNumberOfCalls(t, "Read", tt.calls)
		})
	}
}

func TestScripted_EmptyContent(t *testing.T) {
	reader := new(mockReader)
	reader.On("Read", mock.Anything, mock.Anything).Return(&jina.ReadResponse{Data: jina.ReadData{Content: "   \n "}}, nil)

	_, err := NewScriptedExtractor(reader, nil, ScriptedConfig{}).Extract(context.Background(), "https://vue.app")

	var xe *Error
	require.True(t, errors.As(err, &xe))
	assert.Equal(t, ReasonEmptyContent, xe.Reason)
}

func TestScripted_OpenBreakerIsBlocked(t *testing.T) {
	reader := new(mockReader)
	breaker := resilience.NewBreaker("jina", resilience.BreakerConfig{Threshold: 1, Cooldown: time.Hour})
	_ = breaker.Do(context.Background(), func(context.Context) error { return errors.New("down") })

	_, err := NewScriptedExtractor(reader, breaker, ScriptedConfig{Retry: fastRetry()}).
		Extract(context.Background(), "https://vue.app")

	var xe *Error
	require.True(t, errors.As(err, &xe))
	assert.Equal(t, ReasonBlocked, xe.Reason)
	reader.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)
}

func TestRegistry(t *testing.T) {
	reader := new(mockReader)
	reader.On("Read", mock.Anything, "https://vue.app").
		Return(&jina.ReadResponse{Data: jina.ReadData{Content: "rendered"}}, nil)

	r := NewRegistry(NewStaticExtractor(StaticConfig{}), NewScriptedExtractor(reader, nil, ScriptedConfig{}))

	res, err := r.Extract(context.Background(), "https://vue.app", model.ExtractorScripted)
	require.NoError(t, err)
	assert.Equal(t, "rendered", res.CleanedText)

	_, err = NewRegistry().Extract(context.Background(), "https://vue.app", model.ExtractorStatic)
	assert.Error(t, err)
}
