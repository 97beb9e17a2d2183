// AngelaMos | 2026
// env.go

package config

import "strings"

type binding struct {
	key  string
	list bool
}

// bindings maps the deployment's environment variables onto config keys.
// Unlisted variables are ignored.
var bindings = map[string]binding{
	"ENVIRONMENT": {key: "app.environment"},
	"HOST":        {key: "server.host"},
	"PORT":        {key: "server.port"},

	"DATABASE_DRIVER":       {key: "database.driver"},
	"DATABASE_URL":          {key: "database.url"},
	"DATABASE_AUTO_MIGRATE": {key: "database.auto_migrate"},
	"REDIS_URL":             {key: "redis.url"},

	"JWT_ENABLED":         {key: "jwt.enabled"},
	"JWT_PUBLIC_KEY_PATH": {key: "jwt.public_key_path"},
	"JWT_ISSUER":          {key: "jwt.issuer"},
	"JWT_AUDIENCE":        {key: "jwt.audience"},

	"RATE_LIMIT_REQUESTS": {key: "rate_limit.requests"},
	"RATE_LIMIT_WINDOW":   {key: "rate_limit.window"},
	"RATE_LIMIT_BURST":    {key: "rate_limit.burst"},
	"FRONTEND_URL":        {key: "cors.allowed_origins", list: true},

	"LOG_LEVEL":  {key: "log.level"},
	"LOG_FORMAT": {key: "log.format"},
	"LOG_FILE":   {key: "log.file"},

	"OTEL_ENABLED":                {key: "otel.enabled"},
	"OTEL_ENDPOINT":               {key: "otel.endpoint"},
	"OTEL_EXPORTER_OTLP_ENDPOINT": {key: "otel.endpoint"},
	"OTEL_SERVICE_NAME":           {key: "otel.service_name"},
	"OTEL_INSECURE":               {key: "otel.insecure"},
	"OTEL_SAMPLE_RATE":            {key: "otel.sample_rate"},

	"RESET_MAX_ATTEMPTS":  {key: "ledger.reset_max_attempts"},
	"IDEMPOTENCY_TTL":     {key: "ledger.idempotency_ttl"},
	"JOBS_ENABLED":        {key: "jobs.enabled"},
	"JOBS_RESET_INTERVAL": {key: "jobs.reset_interval"},
}

// fromEnv returns an empty key for variables koanf should skip. List
// bindings accept a comma separated value.
func fromEnv(name, value string) (string, any) {
	b, ok := bindings[name]
	if !ok {
		return "", nil
	}
	if !b.list {
		return b.key, value
	}

	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return b.key, items
}
