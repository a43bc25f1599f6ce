package Routes

import (
	"github.com/gurunathasmb/Major-project/Controllers"
	"github.com/gurunathasmb/Major-project/Middleware"
	"github.com/gurunathasmb/Major-project/Models"
	"github.com/gurunathasmb/Major-project/SSE"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

func ConfigRoutes(router *gin.Engine) {
	// Event streams must not be buffered by the compressor.
	router.Use(gzip.Gzip(gzip.BestSpeed, gzip.WithExcludedPaths([]string{"/api/protected/events"})))

	public := router.Group("/api")
	{
		public.POST("/login", Controllers.Login)
		public.POST("/token", Controllers.IssueToken)
	}

	authorized := router.Group("/api/protected")
	authorized.Use(Middleware.JwtAuthMiddleware())
	authorized.Use(Middleware.SetDoctorScope())
	{
		authorized.GET("/user", Controllers.CurrentUser)
		authorized.POST("/SaveFcmToken", Controllers.SaveFcmToken)
		authorized.GET("/events", SSE.AnalysisEvents)

		// Patient-related routes
		authorized.POST("/patients", Controllers.CreatePatient)
		authorized.GET("/patients", Controllers.FetchPatients)
		authorized.GET("/patients/export", Controllers.ExportPatients)
		authorized.GET("/patients/:code", Controllers.GetPatient)
		authorized.PUT("/patients/:code", Controllers.UpdatePatient)
		authorized.DELETE("/patients/:code", Controllers.DeletePatient)
		authorized.GET("/patients/:code/cephalograms", Controllers.FetchPatientCephalograms)
		authorized.POST("/patients/:code/cephalograms", Controllers.UploadCephalogram)
		authorized.GET("/patients/:code/predictions", Controllers.FetchPatientPredictions)
		authorized.GET("/doctor/stats", Controllers.DoctorStats)

		// Cephalogram-related routes
		authorized.GET("/cephalograms/:code", Controllers.GetCephalogram)
		authorized.DELETE("/cephalograms/:code", Controllers.DeleteCephalogram)
		authorized.POST("/cephalograms/:code/analyze", Controllers.AnalyzeCephalogram)
		authorized.GET("/cephalograms/:code/image", Controllers.CephalogramImage)
		authorized.GET("/cephalograms/:code/annotated", Controllers.CephalogramAnnotated)
		authorized.GET("/cephalograms/:code/excel", Controllers.CephalogramExcel)
		authorized.GET("/cephalograms/:code/report", Controllers.CephalogramReport)
	}

	admin := authorized.Group("/admin")
	admin.Use(Middleware.RequireRole(Models.RoleAdmin))
	{
		admin.POST("/doctors", Controllers.CreateDoctor)
		admin.GET("/doctors", Controllers.ListDoctors)
		admin.GET("/doctors/:code", Controllers.GetDoctor)
		admin.PUT("/doctors/:code", Controllers.UpdateDoctor)
		admin.POST("/doctors/:code/deactivate", Controllers.DeactivateDoctor)
		admin.POST("/doctors/:code/activate", Controllers.ActivateDoctor)
		admin.GET("/stats", Controllers.AdminStats)
	}
}
