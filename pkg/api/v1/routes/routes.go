// Package routes defines the API routes and URL structure
package routes

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/effectiveacceleration/marketplace/pkg/api/v1/handlers"
)

/*

To keep this file organized, routes should be organized in the following way:

1. Smallest scope first (i.e. job event routes before job routes)
2. For similar scopes, put the endpoints in alphabetical order
3. Order routes in GET, POST, PUT, DELETE order.
	a. Within this ordering, param urls (ie /:id) should go last, otherwise fiber will interpret the route slug as that param.
	b. After param considerations, order alphabetically.
4. For clarity, naming should match the action (i.e. GetJob, GetJobEvents)

*/

// API base configuration
const (
	// DefaultPort is the default port for the API
	DefaultPort = "8080"
	// APIv1Prefix is the prefix for all API endpoints
	APIv1Prefix = "/api/v1"
)

// DefaultBaseURL is the default base URL for the API
var DefaultBaseURL = fmt.Sprintf("http://localhost:%s", DefaultPort)

// Route names for lookup
const (
	// Health check
	HealthCheck = "HealthCheck"

	// Job routes
	GetJobEvents = "GetJobEvents"
	GetJob       = "GetJob"

	// User routes
	GetUser = "GetUser"

	// RPC routes
	RPC = "RPC"
)

// routeCache stores extracted routes for use prior to compilation
var (
	routeCache     map[string]string
	routeCacheMu   sync.RWMutex
	routeCacheInit sync.Once
)

// RegisterRoutes configures all the v1 routes
//
// NOTE: route ordering is important because routes will try and match in the order they are registered.
func RegisterRoutes(
	app *fiber.App,
	readHandler *handlers.ReadHandler,
	rpcHandler *handlers.RPCHandler,
) {
	// Health check
	app.Get("/health", readHandler.Health).Name(HealthCheck)

	// API v1 routes
	v1 := app.Group(APIv1Prefix)

	// Job endpoints
	jobs := v1.Group("/jobs")
	jobs.Get("/:id/events", readHandler.GetJobEvents).Name(GetJobEvents)
	jobs.Get("/:id", readHandler.GetJob).Name(GetJob)

	// User endpoints
	users := v1.Group("/users")
	users.Get("/:address", readHandler.GetUser).Name(GetUser)

	// RPC endpoint as the root handler for all operations
	v1.Post("/", rpcHandler.HandleRPC).Name(RPC)
}

// initRouteCache initializes the route cache by creating a mock app and extracting routes
func initRouteCache() {
	routeCacheInit.Do(func() {
		cache := make(map[string]string)

		app := fiber.New()
		RegisterRoutes(app, &handlers.ReadHandler{}, &handlers.RPCHandler{})

		for _, route := range app.GetRoutes() {
			if route.Name != "" {
				cache[route.Name] = route.Path
			}
		}

		routeCacheMu.Lock()
		routeCache = cache
		routeCacheMu.Unlock()
	})
}

// GetRoute returns the route pattern for the given route name
func GetRoute(name string) string {
	initRouteCache()

	routeCacheMu.RLock()
	defer routeCacheMu.RUnlock()
	return routeCache[name]
}

// BuildURL builds a URL for the given route name and parameters
func BuildURL(routeName string, params map[string]string, queryParams url.Values) string {
	route := GetRoute(routeName)
	if route == "" {
		return ""
	}

	// Replace parameters in the route
	for param, value := range params {
		route = strings.ReplaceAll(route, ":"+param, url.PathEscape(value))
	}

	// Remove trailing slash if it's a base endpoint with no parameters
	if strings.HasSuffix(route, "/") && !strings.Contains(route, ":") && route != "/" {
		route = strings.TrimSuffix(route, "/")
	}

	// Add query parameters if any
	if len(queryParams) > 0 {
		route = fmt.Sprintf("%s?%s", route, queryParams.Encode())
	}

	return route
}

// HealthCheckURL returns the URL for the health check endpoint
func HealthCheckURL() string {
	return BuildURL(HealthCheck, nil, nil)
}

// GetJobURL returns the URL for getting a job by ID
func GetJobURL(id uint) string {
	return BuildURL(GetJob, map[string]string{"id": fmt.Sprint(id)}, nil)
}

// GetJobEventsURL returns the URL for reading a job's events
func GetJobEventsURL(id uint, queryParams url.Values) string {
	return BuildURL(GetJobEvents, map[string]string{"id": fmt.Sprint(id)}, queryParams)
}

// GetUserURL returns the URL for getting a user by address
func GetUserURL(address string) string {
	return BuildURL(GetUser, map[string]string{"address": address}, nil)
}

// RPCURL returns the URL for the RPC endpoint
func RPCURL() string {
	return BuildURL(RPC, nil, nil)
}
