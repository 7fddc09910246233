package http

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shortlinks/internal/auth"
	"github.com/mrlokans/shortlinks/internal/links"
	"github.com/mrlokans/shortlinks/internal/qrcode"
)

// Cache policies of the public pages.
const (
	cacheActive  = "public, max-age=300"
	cacheExpired = "no-store"
)

const expiryDateLayout = "2006-01-02"

// PagesController renders the public link pages and the admin shell.
type PagesController struct {
	resolver Resolver
	location *time.Location
	qrSize   int
	pageSize int
}

// NewPagesController creates the controller. Dates are shown in loc.
func NewPagesController(resolver Resolver, loc *time.Location, qrSize, pageSize int) *PagesController {
	if loc == nil {
		loc = time.Local
	}
	if qrSize <= 0 {
		qrSize = qrcode.DefaultSize
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &PagesController{resolver: resolver, location: loc, qrSize: qrSize, pageSize: pageSize}
}

// qrImage is one image on the info page.
type qrImage struct {
	Title string
	Src   template.URL
}

// Root handles GET / by sending visitors to the admin page.
func (pc *PagesController) Root(c *gin.Context) {
	c.Redirect(http.StatusFound, "/admin")
}

// Admin handles GET /admin.
func (pc *PagesController) Admin(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "admin.html", gin.H{
		"CSRFToken": auth.GetCSRFToken(c),
		"PageSize":  pc.pageSize,
	})
}

// Resolve is the catch-all route: the first path segment is looked up as a
// short path. Unknown API paths get a JSON 404.
func (pc *PagesController) Resolve(c *gin.Context) {
	path := strings.TrimPrefix(c.Request.URL.Path, "/")
	if strings.HasPrefix(path, "api/") {
		respondNotFound(c, "endpoint")
		return
	}
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		respondError(c, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	res, err := pc.resolver.Resolve(ctx, path)
	if err != nil {
		if links.IsNotFound(err) {
			pc.notFound(c, path)
			return
		}
		log.Printf("Internal error (resolve %q): %v", path, err)
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	m := res.Mapping
	if res.Status == links.ResolutionExpired {
		c.Header("Cache-Control", cacheExpired)
		c.HTML(http.StatusNotFound, "expired.html", gin.H{
			"Name":   deref(m.Name),
			"Expiry": pc.formatDate(m.Expiry),
		})
		return
	}

	title := deref(m.Name)
	if title == "" {
		title = "Scan the QR code"
	}

	targetQR, err := qrcode.DataURI(m.Target, pc.qrSize)
	if err != nil {
		log.Printf("Resolve: failed to render QR code for %q: %v", path, err)
	}

	c.Header("Cache-Control", cacheActive)
	c.HTML(http.StatusOK, "info.html", gin.H{
		"Title":    title,
		"Target":   m.Target,
		"TargetQR": template.URL(targetQR),
		"QRCodes":  qrImages(res.QRCodes),
		"Expiry":   pc.formatDate(m.Expiry),
	})
}

func (pc *PagesController) notFound(c *gin.Context, path string) {
	c.Header("Cache-Control", cacheExpired)
	c.HTML(http.StatusNotFound, "not_found.html", gin.H{"Path": path})
}

// TargetQR handles GET /api/qr?path= and returns the QR code PNG of a
// mapping's target.
func (pc *PagesController) TargetQR(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		respondBadRequest(c, "missing path parameter")
		return
	}

	res, err := pc.resolver.Resolve(c.Request.Context(), path)
	if err != nil {
		respondMappingError(c, err, "resolve for qr")
		return
	}

	png, err := qrcode.PNG(res.Mapping.Target, queryInt(c, "size", pc.qrSize))
	if err != nil {
		respondInternalError(c, err, "render qr code")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (pc *PagesController) formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(pc.location).Format(expiryDateLayout)
}

// qrImages converts configured QR codes for rendering. Only inline images are
// trusted as img sources; anything else is dropped.
func qrImages(codes []links.QRCode) []qrImage {
	out := make([]qrImage, 0, len(codes))
	for _, code := range codes {
		if !strings.HasPrefix(code.Data, "data:image/") {
			continue
		}
		out = append(out, qrImage{
			Title: "QR code " + code.Slot,
			Src:   template.URL(code.Data),
		})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
