package rest

const (
	// api
	RouteApiV1 = "/api/v1"

	// auth
	RouteAuth    = RouteApiV1 + "/auth"
	RouteSignUp  = RouteAuth + "/signup"
	RouteSignIn  = RouteAuth + "/signin"
	RouteSignOut = RouteAuth + "/signout"
	RouteSession = RouteAuth + "/session"

	// uploads
	RouteUploads = RouteApiV1 + "/uploads"
	RouteUpload  = RouteUploads + "/:id"
	RouteCodeQR  = RouteApiV1 + "/codes/:code/qr"

	// device downloads
	RouteDownloads = RouteApiV1 + "/downloads"
	RouteDownload  = RouteDownloads + "/:id"

	// ops
	RouteHealth  = RouteApiV1 + "/healthz"
	RouteMetrics = RouteApiV1 + "/metrics"
)
