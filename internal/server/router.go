package server

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"retail-audit/internal/config"
	"retail-audit/internal/handlers"
	"retail-audit/internal/middleware"
	"retail-audit/internal/models"
	"retail-audit/web"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func pct(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func pct1(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func photoURL(store, category, photoType string) string {
	return "/photos/" + store + "/" + category + "/" + photoType
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"pct":      pct,
		"pct1":     pct1,
		"photoURL": photoURL,
		"safeCSS":  func(s string) template.CSS { return template.CSS(s) },
	}
}

func NewRouter(cfg *config.Config) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = 32 << 20

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		panic(err)
	}
	r.StaticFS("/static", http.FS(static))

	tmpl := template.Must(template.New("").Funcs(templateFuncs()).ParseFS(web.Templates, "templates/*.html"))
	r.SetHTMLTemplate(tmpl)

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 86400 * 7, HttpOnly: true})
	r.Use(sessions.Sessions("audit_session", store))

	r.Use(middleware.InjectUser())

	// ГЛАВНАЯ
	r.GET("/", handlers.IndexPage)

	// AUTH
	r.GET("/login", handlers.ShowLogin)
	r.POST("/login", handlers.Login)
	r.GET("/logout", handlers.Logout)

	auth := r.Group("/")
	auth.Use(middleware.RequireAuth())

	// ДАШБОРД
	auth.GET("/dashboard", handlers.Dashboard)

	// ЗАХВАТ (региональный только смотрит)
	auth.GET("/captures/new",
		middleware.RequireRole(models.RoleAdmin, models.RoleManager),
		handlers.ShowCaptureForm,
	)
	auth.POST("/captures",
		middleware.RequireRole(models.RoleAdmin, models.RoleManager),
		handlers.SaveCapture,
	)

	// МАГАЗИНЫ
	auth.GET("/stores", handlers.ListStores)

	// создание и редактирование — только админ
	auth.GET("/stores/new",
		middleware.RequireRole(models.RoleAdmin),
		handlers.ShowNewStore,
	)
	auth.POST("/stores/new",
		middleware.RequireRole(models.RoleAdmin),
		handlers.CreateStore,
	)
	auth.GET("/stores/:code/edit",
		middleware.RequireRole(models.RoleAdmin),
		handlers.ShowEditStore,
	)
	auth.POST("/stores/:code/edit",
		middleware.RequireRole(models.RoleAdmin),
		handlers.UpdateStore,
	)

	// ====== ФОТО ======
	auth.GET("/stores/:code/photos", handlers.ShowStorePhotos)
	auth.POST("/stores/:code/photos",
		middleware.RequireRole(models.RoleAdmin, models.RoleManager),
		handlers.UploadStorePhoto,
	)
	auth.GET("/photos/:store/:category/:type", handlers.ServePhoto)
	auth.POST("/admin/photos/sweep",
		middleware.RequireRole(models.RoleAdmin),
		handlers.SweepPhotos,
	)

	// ЭКСПОРТ
	auth.GET("/export/captures.csv",
		middleware.RequireRole(models.RoleAdmin, models.RoleRegional),
		handlers.ExportCSV,
	)
	auth.GET("/export/captures.xlsx",
		middleware.RequireRole(models.RoleAdmin, models.RoleRegional),
		handlers.ExportXLSX,
	)

	// ПОЛЬЗОВАТЕЛИ
	auth.GET("/users",
		middleware.RequireRole(models.RoleAdmin),
		handlers.ListUsers,
	)
	auth.GET("/users/new",
		middleware.RequireRole(models.RoleAdmin),
		handlers.ShowNewUser,
	)
	auth.POST("/users/new",
		middleware.RequireRole(models.RoleAdmin),
		handlers.CreateUser,
	)

	// АУДИТ
	auth.GET("/audit",
		middleware.RequireRole(models.RoleAdmin),
		handlers.ListAuditLogs,
	)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
