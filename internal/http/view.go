package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/zenreader/internal/entities"
	"github.com/mrlokans/zenreader/internal/protocol"
	"github.com/mrlokans/zenreader/internal/session"
	"github.com/mrlokans/zenreader/internal/tracker"
	"github.com/mrlokans/zenreader/internal/websession"
	"github.com/mrlokans/zenreader/internal/window"
)

// ViewResponse is the view's state after a request, plus every event the
// view produced since the previous response.
type ViewResponse struct {
	ViewID string              `json:"viewId"`
	State  session.State       `json:"state"`
	Events []protocol.Envelope `json:"events"`
}

// ViewController exposes the browser session's reading view. Each session
// owns at most one view; its id lives in the session cookie.
type ViewController struct {
	views    *session.Registry
	sessions *websession.Manager
	service  ReaderService
}

func NewViewController(views *session.Registry, sessions *websession.Manager, service ReaderService) *ViewController {
	return &ViewController{views: views, sessions: sessions, service: service}
}

type openViewRequest struct {
	BookID string `json:"bookId" binding:"required"`
	Mode   string `json:"mode"`
}

type navigateRequest struct {
	ChapterID string          `json:"chapterId" binding:"required"`
	Anchor    json.RawMessage `json:"anchor"`
}

type anchorRequest struct {
	Anchor json.RawMessage `json:"anchor" binding:"required"`
}

type measureRequest struct {
	ChapterID string  `json:"chapterId" binding:"required"`
	Height    float64 `json:"height"`
}

type modeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// Open opens a book in the session's view, creating the view if needed.
// Without an explicit mode the session's last mode is used, then the
// saved settings.
// POST /api/view/open
func (vc *ViewController) Open(c *gin.Context) {
	var req openViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "bookId is required")
		return
	}

	mode := vc.sessions.Mode(c.Request, vc.service.Settings().Mode)
	if req.Mode != "" {
		parsed, err := entities.ParseReaderMode(req.Mode)
		if err != nil {
			respondDomainError(c, err, "open view")
			return
		}
		mode = parsed
	}

	view := vc.views.GetOrCreate(vc.sessions.ViewID(c.Request))
	vc.sessions.SetViewID(c.Request, view.ID())

	if _, err := view.Open(req.BookID, mode); err != nil {
		respondDomainError(c, err, "open view")
		return
	}
	vc.sessions.SetMode(c.Request, mode)
	vc.respondView(c, view)
}

// Navigate POST /api/view/navigate
func (vc *ViewController) Navigate(c *gin.Context) {
	view, ok := vc.currentView(c)
	if !ok {
		return
	}
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "chapterId is required")
		return
	}

	var anchor *entities.Anchor
	if len(req.Anchor) > 0 && string(req.Anchor) != "null" {
		parsed, err := entities.ParseAnchor(req.Anchor)
		if err != nil {
			respondDomainError(c, err, "navigate")
			return
		}
		anchor = &parsed
	}

	if _, err := view.Navigate(req.ChapterID, anchor); err != nil {
		respondDomainError(c, err, "navigate")
		return
	}
	vc.respondView(c, view)
}

// Next POST /api/view/next
func (vc *ViewController) Next(c *gin.Context) {
	vc.step(c, (*session.View).NextChapter)
}

// Prev POST /api/view/prev
func (vc *ViewController) Prev(c *gin.Context) {
	vc.step(c, (*session.View).PrevChapter)
}

func (vc *ViewController) step(c *gin.Context, move func(*session.View) (tracker.Navigation, error)) {
	view, ok := vc.currentView(c)
	if !ok {
		return
	}
	if _, err := move(view); err != nil {
		respondDomainError(c, err, "step chapter")
		return
	}
	vc.respondView(c, view)
}

// Observe records a paged position.
// POST /api/view/observe
func (vc *ViewController) Observe(c *gin.Context) {
	view, ok := vc.currentView(c)
	if !ok {
		return
	}
	var req anchorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "anchor is required")
		return
	}
	anchor, err := entities.ParseAnchor(req.Anchor)
	if err != nil {
		respondDomainError(c, err, "observe")
		return
	}
	if err := view.Observe(anchor); err != nil {
		respondDomainError(c, err, "observe")
		return
	}
	vc.respondView(c, view)
}

// Scroll records the continuous-mode viewport.
// POST /api/view/scroll
func (vc *ViewController) Scroll(c *gin.Context) {
	view, ok := vc.currentView(c)
	if !ok {
		return
	}
	var vp window.Viewport
	if err := c.ShouldBindJSON(&vp); err != nil {
		respondBadRequest(c, "scrollTop and clientHeight must be numbers")
		return
	}
	if err := view.Scroll(vp); err != nil {
		respondDomainError(c, err, "scroll")
		return
	}
	vc.respondView(c, view)
}

// Measure records a rendered chapter block's height.
// POST /api/view/measure
func (vc *ViewController) Measure(c *gin.Context) {
	view, ok := vc.currentView(c)
	if !ok {
		return
	}
	var req measureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "chapterId is required")
		return
	}
	if err := view.Measure(req.ChapterID, req.Height); err != nil {
		respondDomainError(c, err, "measure")
		return
	}
	vc.respondView(c, view)
}

// SwitchMode POST /api/view/mode
func (vc *ViewController) SwitchMode(c *gin.Context) {
	view, ok := vc.currentView(c)
	if !ok {
		return
	}
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "mode is required")
		return
	}
	mode, err := entities.ParseReaderMode(req.Mode)
	if err != nil {
		respondDomainError(c, err, "switch mode")
		return
	}
	if _, err := view.SwitchMode(mode); err != nil {
		respondDomainError(c, err, "switch mode")
		return
	}
	vc.sessions.SetMode(c.Request, mode)
	vc.respondView(c, view)
}

// AddBookmark bookmarks the view's current position.
// POST /api/view/bookmark
func (vc *ViewController) AddBookmark(c *gin.Context) {
	view, ok := vc.currentView(c)
	if !ok {
		return
	}
	if _, err := view.AddBookmark(); err != nil {
		respondDomainError(c, err, "add bookmark")
		return
	}
	vc.respondView(c, view)
}

// OpenBookmark POST /api/view/bookmarks/:id/open
func (vc *ViewController) OpenBookmark(c *gin.Context) {
	view, ok := vc.currentView(c)
	if !ok {
		return
	}
	if _, err := view.OpenBookmark(c.Param("id")); err != nil {
		respondDomainError(c, err, "open bookmark")
		return
	}
	vc.respondView(c, view)
}

// Events returns the view's state and pending events.
// GET /api/view/events
func (vc *ViewController) Events(c *gin.Context) {
	view, ok := vc.currentView(c)
	if !ok {
		return
	}
	vc.respondView(c, view)
}

// Close flushes the view's position and forgets it.
// POST /api/view/close
func (vc *ViewController) Close(c *gin.Context) {
	id := vc.sessions.ViewID(c.Request)
	vc.sessions.SetViewID(c.Request, "")
	if err := vc.views.Close(id); err != nil {
		respondDomainError(c, err, "close view")
		return
	}
	respondSuccess(c, "view closed")
}

func (vc *ViewController) currentView(c *gin.Context) (*session.View, bool) {
	view, err := vc.views.Get(vc.sessions.ViewID(c.Request))
	if err != nil {
		respondNotFound(c, "view")
		return nil, false
	}
	return view, true
}

func (vc *ViewController) respondView(c *gin.Context, view *session.View) {
	if err := view.Sync(); err != nil {
		respondDomainError(c, err, "view")
		return
	}
	state, err := view.State()
	if err != nil {
		respondDomainError(c, err, "view")
		return
	}

	resp := ViewResponse{ViewID: view.ID(), State: state, Events: []protocol.Envelope{}}
	for _, ev := range view.Events() {
		env, err := protocol.EncodeEvent(ev)
		if err != nil {
			respondInternalError(c, err, "encode "+ev.Type())
			return
		}
		resp.Events = append(resp.Events, env)
	}
	c.JSON(http.StatusOK, resp)
}
