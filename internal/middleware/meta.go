package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/freightdesk-api/pkg/middleware/requestid"
)

const (
	responseMetaKey  = "response_meta"
	requestStartKey  = "request_started_at"
	metaRequestID    = "request_id"
	metaProcessingMs = "processing_time_ms"
)

// WithResponseMeta stamps the request start time and an empty meta bag that
// handlers fill through SetMeta before rendering the envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetMeta records a value to echo in the response envelope.
func SetMeta(c *gin.Context, key string, value interface{}) {
	metaBag(c)[key] = value
}

// ResponseMeta returns a copy of the collected meta with the request ID and
// elapsed processing time filled in.
func ResponseMeta(c *gin.Context) map[string]interface{} {
	bag := metaBag(c)
	out := make(map[string]interface{}, len(bag)+2)
	for k, v := range bag {
		out[k] = v
	}
	if id := requestid.Value(c); id != "" {
		out[metaRequestID] = id
	}
	if v, ok := c.Get(requestStartKey); ok {
		if started, ok := v.(time.Time); ok {
			out[metaProcessingMs] = time.Since(started).Milliseconds()
		}
	}
	return out
}

func metaBag(c *gin.Context) map[string]interface{} {
	if v, ok := c.Get(responseMetaKey); ok {
		if bag, ok := v.(map[string]interface{}); ok {
			return bag
		}
	}
	bag := map[string]interface{}{}
	c.Set(responseMetaKey, bag)
	return bag
}
