package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/plateful/menu-catalog/pkg/cache"
	"github.com/plateful/menu-catalog/pkg/catalog"
	"github.com/plateful/menu-catalog/pkg/fallback"
	"github.com/plateful/menu-catalog/pkg/logging"
	"github.com/plateful/menu-catalog/pkg/remote"
	"github.com/plateful/menu-catalog/pkg/repository"
)

const requestTimeout = 30 * time.Second

func main() {
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "") != "",
		Output: os.Stderr,
	})
	logger := logging.NewLogger("menu-proxy")

	// Configuration from environment
	port := getEnv("PORT", "8080")
	baseURL := getEnv("REMOTE_BASE_URL", "http://localhost:9000")
	sqlitePath := getEnv("SQLITE_PATH", "./menu-snapshot.db")
	redisURL := getEnv("REDIS_URL", "")

	// Cache store: Redis when configured, in-memory otherwise.
	var store cache.Store
	if redisURL != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: redisURL})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", redisURL).Msg("Failed to connect to Redis")
		}
		logger.Info().Str("addr", redisURL).Msg("Using Redis cache store")
		store = cache.NewRedisStore(redisClient)
	} else {
		logger.Info().Msg("Using in-memory cache store")
		store = cache.NewMemoryStore()
	}

	remoteClient, err := remote.New(remote.Config{
		BaseURL:   baseURL,
		UserAgent: "menu-catalog/0.1.0",
		Timeout:   requestTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create remote client")
	}

	snapshot, err := fallback.Open(sqlitePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", sqlitePath).Msg("Failed to open fallback snapshot")
	}
	defer snapshot.Close()

	repo, err := repository.New(store, remoteClient, snapshot, repository.Config{})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create repository")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/v1/menu-items", menuItemsHandler(repo))
	e.GET("/v1/cache/stats", func(c echo.Context) error {
		return c.JSON(http.StatusOK, repo.CacheStats())
	})
	e.POST("/v1/cache/clear", func(c echo.Context) error {
		if err := repo.ClearCache(c.Request().Context()); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.NoContent(http.StatusNoContent)
	})

	logger.Info().
		Str("port", port).
		Str("remote", baseURL).
		Msg("Starting menu proxy")

	if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// menuItemsHandler translates query parameters into a repository fetch.
func menuItemsHandler(repo *repository.Repository) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := 20
		if raw := c.QueryParam("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
			}
			limit = parsed
		}

		filter := catalog.Filter{
			Query:      c.QueryParam("q"),
			Categories: splitList(c.QueryParam("categories")),
			Cuisines:   splitList(c.QueryParam("cuisines")),
		}

		priceRange, err := parsePriceRange(c.QueryParam("min_price"), c.QueryParam("max_price"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		filter.PriceRange = priceRange

		ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
		defer cancel()

		page, err := repo.Fetch(ctx, repository.Params{
			Limit:  limit,
			Cursor: c.QueryParam("cursor"),
			Filter: filter,
		})
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}

		return c.JSON(http.StatusOK, page)
	}
}

// splitList parses a comma-separated query parameter into a set.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

// parsePriceRange builds a price range from min/max query parameters.
// Both must be present together.
func parsePriceRange(minRaw, maxRaw string) (*catalog.PriceRange, error) {
	if minRaw == "" && maxRaw == "" {
		return nil, nil
	}
	if minRaw == "" || maxRaw == "" {
		return nil, errors.New("min_price and max_price must be provided together")
	}

	minPrice, err := strconv.ParseFloat(minRaw, 64)
	if err != nil {
		return nil, errors.New("min_price must be a number")
	}
	maxPrice, err := strconv.ParseFloat(maxRaw, 64)
	if err != nil {
		return nil, errors.New("max_price must be a number")
	}
	if maxPrice < minPrice {
		return nil, errors.New("max_price must be >= min_price")
	}

	return &catalog.PriceRange{Min: minPrice, Max: maxPrice}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
