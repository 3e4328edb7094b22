package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"casefile/internal/auth"
	"casefile/internal/httpserver/handlers"
	"casefile/internal/mailer"
	"casefile/internal/storage"
)

func NewRouter(db *gorm.DB, store storage.Store, ml mailer.Mailer, lg *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)

	r.Post("/auth/sign-up", handlers.SignUp(db, lg))
	r.Post("/auth/sign-in", handlers.SignIn(db, lg))
	r.Get("/auth/session", handlers.SessionInfo(db))
	r.Get("/cases/public/{token}", handlers.PublicCase(db, lg))
	r.Get("/public/evidence", handlers.PublicEvidence(db, lg))

	r.Group(func(protected chi.Router) {
		protected.Use(auth.SessionAuth(db))
		protected.Post("/auth/sign-out", handlers.SignOut(db))

		protected.Get("/cases", handlers.ListCases(db, lg))
		protected.Post("/cases", handlers.CreateCase(db, lg))
		protected.Get("/cases/{id}", handlers.GetCase(db, lg))
		protected.Patch("/cases/{id}", handlers.UpdateCase(db, lg))
		protected.Delete("/cases/{id}", handlers.DeleteCase(db, lg))
		protected.Post("/cases/{id}/share", handlers.ShareCase(db, lg))
		protected.Delete("/cases/{id}/share", handlers.RevokeShare(db, lg))
		protected.Get("/cases/{id}/evidence", handlers.ListCaseEvidence(db, lg))
		protected.Patch("/cases/{id}/evidence/reorder", handlers.ReorderEvidence(db, lg))
		protected.Get("/cases/{id}/members", handlers.ListMembers(db, lg))
		protected.Post("/cases/{id}/members", handlers.InviteMember(db, ml, lg))
		protected.Patch("/cases/{id}/members/{memberId}", handlers.UpdateMemberRole(db, lg))
		protected.Delete("/cases/{id}/members/{memberId}", handlers.RemoveMember(db, lg))

		protected.Post("/evidence", handlers.CreateEvidence(db, lg))
		protected.Get("/evidence/{id}", handlers.GetEvidence(db, lg))
		protected.Patch("/evidence/{id}", handlers.UpdateEvidence(db, lg))
		protected.Delete("/evidence/{id}", handlers.DeleteEvidence(db, store, lg))
		protected.Post("/evidence/{id}/upload", handlers.UploadEvidence(db, store, lg))
		protected.Get("/evidence/{id}/download", handlers.DownloadEvidence(db, lg))

		protected.Patch("/jobs/{id}", handlers.UpdateJob(db, lg))

		protected.Get("/tags", handlers.ListTags(db, lg))
		protected.Post("/tags", handlers.CreateTag(db, lg))
		protected.Delete("/tags/{id}", handlers.DeleteTag(db, lg))

		protected.Get("/facts", handlers.ListFacts(db, lg))
		protected.Post("/facts", handlers.CreateFact(db, lg))
		protected.Patch("/facts/{id}", handlers.UpdateFact(db, lg))
		protected.Delete("/facts/{id}", handlers.DeleteFact(db, lg))

		protected.Get("/export/case/{id}", handlers.ExportCase(db, lg))
		protected.Get("/logs", handlers.MyLogs(db, lg))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
