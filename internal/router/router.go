// Package router registers the HTTP routes of the web application.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/weatherwear/weatherwear/internal/handler"
	"github.com/weatherwear/weatherwear/internal/middleware"
	"github.com/weatherwear/weatherwear/internal/model"
)

// Deps collects everything the routes need.  RateLimit and Cache may be
// pass-through middlewares.
type Deps struct {
	Auth     *middleware.Authenticator
	Accounts *handler.AuthHandler
	Profile  *handler.ProfileHandler
	Wardrobe *handler.WardrobeHandler
	Devices  *handler.DeviceHandler
	Sensors  *handler.SensorHandler
	Outfits  *handler.OutfitHandler
	Pages    handler.Pages
	Health   echo.HandlerFunc

	Ingest    echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// SensorKinds lists the sensor kinds that get ingest and history routes.
var SensorKinds = []model.SensorKind{model.SensorTemperature}

// RegisterRoutes wires pages, form posts and the JSON API onto e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	d = withDefaults(d)

	e.GET("/healthz", d.Health)

	registerPages(e, d)
	registerAPI(e, d)
}

// registerPages registers the HTML pages and the browser form endpoints.
// Middlewares are attached per route so unknown paths keep answering 404.
func registerPages(e *echo.Echo, d Deps) {
	e.GET("/", d.Pages.Page("index.html"))
	e.GET("/login", d.Pages.Page("login.html"))
	e.GET("/signup", d.Pages.Page("signup.html"))

	e.POST("/signup", d.Accounts.Signup)
	e.POST("/login", d.Accounts.Login)
	e.POST("/logout", d.Accounts.Logout)

	page := d.Auth.RequireSessionPage()
	e.GET("/dashboard", d.Pages.Page("dashboard.html"), page)
	e.GET("/profile", d.Pages.Page("profile.html"), page)
	e.GET("/wardrobe", d.Pages.Page("wardrobe.html"), page)
	e.POST("/wardrobe", d.Wardrobe.AddForm, page)
}

// registerAPI registers the /api routes.  Session gated routes answer 401
// JSON; device registration and ingestion go through the ingest middleware.
func registerAPI(e *echo.Echo, d Deps) {
	api := e.Group("/api", d.RateLimit)

	// open
	api.GET("/devices", d.Devices.ListUnowned)
	api.POST("/add_device", d.Devices.AddDevice)
	api.POST("/add_device/:user_id", d.Devices.AddDevice)

	api.POST("/register_device/", d.Devices.Register, d.Ingest)

	for _, kind := range SensorKinds {
		api.POST("/"+string(kind), d.Sensors.Ingest(kind), d.Ingest)
		api.GET("/"+string(kind)+"/:mac_address", d.Sensors.Query(kind), d.Cache)
	}

	user := d.Auth.RequireSessionAPI()
	api.GET("/getId", d.Profile.GetID, user)
	api.GET("/profile", d.Profile.Get, user)
	api.POST("/profile", d.Profile.Update, user)
	api.DELETE("/profile", d.Profile.Delete, user)

	api.GET("/wardrobe", d.Wardrobe.List, user)
	api.POST("/wardrobe", d.Wardrobe.Add, user)
	api.DELETE("/wardrobe/remove", d.Wardrobe.Remove, user)
	api.POST("/wardrobe/update", d.Wardrobe.Update, user)

	api.GET("/devices/:user_id", d.Devices.ListForUser, user)
	api.GET("/generate-outfit/:temperature/:condition", d.Outfits.Generate, user)
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func withDefaults(d Deps) Deps {
	if d.Ingest == nil {
		d.Ingest = passThrough
	}
	if d.RateLimit == nil {
		d.RateLimit = passThrough
	}
	if d.Cache == nil {
		d.Cache = passThrough
	}
	if d.Health == nil {
		d.Health = handler.Health(nil)
	}
	return d
}
