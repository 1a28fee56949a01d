package jobs

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer(
	"github.com/openoj/judge-api/cmd/server/internal/jobs",
)
