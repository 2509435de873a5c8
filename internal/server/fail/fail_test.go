package fail_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cirruslabs/mediacache/internal/server/fail"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestFail(t *testing.T) {
	e := echo.New()

	recorder := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/media", nil), recorder)

	require.NoError(t, fail.Fail(c, http.StatusBadGateway, "upstream said %d", 500))
	require.Equal(t, http.StatusBadGateway, recorder.Code)

	var response fail.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.Equal(t, "upstream said 500", response.Message)
}
