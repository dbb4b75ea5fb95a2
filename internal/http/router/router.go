package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/http/handler"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/http/middleware"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/security"
)

// Dependencies carries everything the route table needs. The struct keeps the
// wire provider signature stable as routes come and go.
type Dependencies struct {
	Auth      *handler.AuthHandler
	Documents *handler.DocumentHandler
	Chat      *handler.ChatHandler

	Codec   *security.TokenCodec
	Limiter middleware.Limiter

	CORSOrigins     []string
	OTPRateLimitRPM int
}

// New builds the HTTP route table. Three surfaces share one router: the
// identifier flow under /identifier, the impersonation login, and the legacy
// journal-credential endpoints at the root.
func New(dep Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(dep.CORSOrigins))

	// Code issuance is the abuse magnet; the limiter fails closed so a
	// broken backend cannot turn into unlimited SMS sends.
	otpLimit := middleware.NewRateLimiter(
		dep.Limiter, dep.OTPRateLimitRPM, time.Minute, middleware.FailClosed, "otp",
	).Middleware()

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/identifier", func(r chi.Router) {
		r.With(otpLimit).Post("/request-otp", dep.Auth.RequestOTP)
		r.With(otpLimit).Post("/verify-otp", dep.Auth.VerifyOTP)
		r.Post("/search", dep.Documents.IdentifierSearch)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(dep.Codec))
			r.Post("/list", dep.Documents.IdentifierList)
			r.Post("/doc-url", dep.Documents.IdentifierDocURL)
			r.Post("/approve", dep.Documents.IdentifierApprove)
			r.Post("/chat/list", dep.Chat.IdentifierChatList)
			r.Post("/chat/send", dep.Chat.IdentifierChatSend)
		})
	})

	r.Post("/impersonation/login", dep.Auth.ImpersonationLogin)

	// Legacy journal-credential surface. Auth rides in each request body
	// (or query string for the chat poll), so no session middleware here.
	r.With(otpLimit).Post("/otp-send", dep.Auth.OTPSend)
	r.Post("/otp-verify", dep.Auth.OTPVerify)
	r.Post("/doc-list", dep.Documents.DocList)
	r.Post("/doc-url", dep.Documents.DocURL)
	r.Post("/approve", dep.Documents.Approve)
	r.Post("/upload-start", dep.Documents.UploadStart)
	r.Get("/chat/list", dep.Chat.ChatList)
	r.Post("/chat/send", dep.Chat.ChatSend)

	return r
}
