package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/cirruslabs/mediacache/internal/cache"
	"github.com/cirruslabs/mediacache/internal/contenttype"
	"github.com/cirruslabs/mediacache/internal/media"
	"github.com/cirruslabs/mediacache/internal/mediaurl"
	"github.com/cirruslabs/mediacache/internal/retrieval"
	"github.com/cirruslabs/mediacache/internal/server/fail"
	"github.com/labstack/echo/v4"
)

const HeaderMediaHandle = "X-Media-Handle"

func (server *Server) handleMedia(c echo.Context) error {
	source := c.QueryParam("url")
	if source == "" {
		return fail.Fail(c, http.StatusBadRequest, "no \"url\" query parameter was provided")
	}

	kind, err := media.ParseKind(c.QueryParam("kind"))
	if err != nil {
		return fail.Fail(c, http.StatusBadRequest, "%v", err)
	}

	lease := server.service.Acquire(c.Request().Context(), source, kind)
	defer lease.Release()

	state, err := lease.Wait(c.Request().Context())
	if err != nil {
		return failRetrieval(c, source, err)
	}

	// Nothing to proxy, the URL is usable as-is
	handle := lease.Handle()
	if handle == nil {
		return c.Redirect(http.StatusTemporaryRedirect, state.URL)
	}

	return stream(c, handle)
}

func (server *Server) handleBlob(c echo.Context) error {
	handle, err := server.service.Store().Lookup(c.Param("id"))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return fail.Fail(c, http.StatusNotFound, "no live handle found for %s", c.Param("id"))
		}

		return fail.Fail(c, http.StatusInternalServerError, "%v", err)
	}

	return stream(c, handle)
}

func (server *Server) handlePurge(c echo.Context) error {
	return c.JSON(http.StatusOK, &purgeResponse{
		Purged: server.service.Purge(),
	})
}

func stream(c echo.Context, handle *cache.Handle) error {
	reader, err := handle.Open()
	if err != nil {
		return fail.Fail(c, http.StatusNotFound, "handle %s is no longer available: %v", handle.ID(), err)
	}

	contentType := handle.ContentType()
	if contentType == "" {
		contentType = contenttype.OctetStream
	}

	c.Response().Header().Set(HeaderMediaHandle, handle.ID())

	return c.Stream(http.StatusOK, contentType, reader)
}

func failRetrieval(c echo.Context, source string, err error) error {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, retrieval.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, mediaurl.ErrMalformedSourceURL):
		status = http.StatusBadRequest
	case errors.Is(err, retrieval.ErrWrongMediaCategory):
		status = http.StatusUnsupportedMediaType
	case retrieval.IsUpstreamFailure(err):
		status = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	return fail.Fail(c, status, "failed to retrieve %s: %v", source, err)
}
