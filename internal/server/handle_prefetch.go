package server

import (
	"net/http"

	"github.com/cirruslabs/mediacache/internal/media"
	"github.com/cirruslabs/mediacache/internal/server/fail"
	"github.com/go-chi/render"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

type prefetchRequest struct {
	URLs []string `json:"urls"`
	Kind string   `json:"kind"`
}

type prefetchResponse struct {
	Results []prefetchResult `json:"results"`
}

type prefetchResult struct {
	URL   string `json:"url"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type purgeResponse struct {
	Purged int `json:"purged"`
}

func (server *Server) handlePrefetch(c echo.Context) error {
	var request prefetchRequest

	if err := render.DecodeJSON(c.Request().Body, &request); err != nil {
		return fail.Fail(c, http.StatusBadRequest, "failed to read/decode the JSON "+
			"passed to the prefetch endpoint: %v", err)
	}

	urls := lo.Uniq(lo.Filter(request.URLs, func(url string, _ int) bool {
		return url != ""
	}))
	if len(urls) == 0 {
		return fail.Fail(c, http.StatusBadRequest, "no URLs to prefetch were provided")
	}

	kind, err := media.ParseKind(request.Kind)
	if err != nil {
		return fail.Fail(c, http.StatusBadRequest, "%v", err)
	}

	outcomes := server.service.Prefetch(c.Request().Context(), urls, kind)

	return c.JSON(http.StatusOK, &prefetchResponse{
		Results: lo.Map(urls, func(url string, _ int) prefetchResult {
			err := outcomes[url]
			if err != nil {
				return prefetchResult{URL: url, Error: err.Error()}
			}

			return prefetchResult{URL: url, OK: true}
		}),
	})
}
