package httpapi

import (
	"net/http"

	"shorty.local/gee"
	"shorty.local/internal/app/links"
	"shorty.local/internal/platform/auth"
)

func NewShortenHandler(svc *links.Service) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		var req ShortenRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		l, err := svc.Shorten(ctx.Req.Context(), req.OriginalURL, auth.CallerID(ctx.Req.Context()))
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, toLinkResponse(l))
	}
}

func NewCustomAliasHandler(svc *links.Service) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		var req CustomAliasRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		l, err := svc.ShortenWithAlias(ctx.Req.Context(), req.OriginalURL, req.CustomAlias, auth.CallerID(ctx.Req.Context()))
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, toLinkResponse(l))
	}
}

func NewPackHandler(svc *links.Service) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		var req PackRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		created, err := svc.PackCreate(ctx.Req.Context(), req.OriginalURLs, auth.CallerID(ctx.Req.Context()))
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, toItems(created))
	}
}

// NewSearchHandler GET /links/search?original_url=...
func NewSearchHandler(svc *links.Service) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		l, err := svc.SearchByURL(ctx.Req.Context(), ctx.Query("original_url"))
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, toLinkResponse(l))
	}
}

func NewListHandler(svc *links.Service) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		list, err := svc.ListByOwner(ctx.Req.Context(), auth.CallerID(ctx.Req.Context()))
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, toItems(list))
	}
}

// NewRedirectHandler 用 307，浏览器每次都会回到这里，点击数才准确。
func NewRedirectHandler(svc *links.Service) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		target, err := svc.Redirect(ctx.Req.Context(), ctx.Param("code"))
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.SetHeader("Cache-Control", "no-store")
		ctx.Redirect(http.StatusTemporaryRedirect, target)
	}
}

func NewStatsHandler(svc *links.Service) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		st, err := svc.GetStats(ctx.Req.Context(), ctx.Param("code"))
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, toStatsResponse(st))
	}
}

func NewUpdateHandler(svc *links.Service) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		caller := auth.CallerID(ctx.Req.Context())
		if caller == nil {
			writeError(ctx, links.ErrUnauthorized)
			return
		}
		var req UpdateRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		l, err := svc.Update(ctx.Req.Context(), ctx.Param("code"), req.OriginalURL, caller)
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, toLinkResponse(l))
	}
}

func NewDeleteHandler(svc *links.Service) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		if err := svc.Delete(ctx.Req.Context(), ctx.Param("code"), auth.CallerID(ctx.Req.Context())); err != nil {
			writeError(ctx, err)
			return
		}
		ctx.NoContent(http.StatusNoContent)
	}
}
