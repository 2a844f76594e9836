package router

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"claim-portal/config"
	"claim-portal/controler"
	"claim-portal/pkg/log"

	cache "github.com/chenyahui/gin-cache"
	persistence "github.com/chenyahui/gin-cache/persist"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const RequestIdHeader = "X-Request-Id"

func NewRoute(db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(log.Write), gin.Recovery(), RequestId())

	conf := config.GetConfig()
	ttl := time.Duration(conf.App.CacheSeconds) * time.Second
	store := persistence.NewMemoryStore(ttl)

	permitC := controler.NewPermitController(db)
	claimC := controler.NewClaimController(db)

	portal := r.Group(conf.App.RoutePrefix)
	v1 := portal.Group("/v1")
	{
		v1.GET("/permits", permitC.List)
		v1.POST("/permits", permitC.Create)
		v1.GET("/permits/:nonce", permitC.Get)
		v1.PUT("/permits/:nonce/transaction", permitC.UpdateTransaction)
	}

	preview := v1.Group("/claim", cache.Cache(store, ttl, cache.WithCacheStrategyByRequest(func(c *gin.Context) (bool, cache.Strategy) {
		ok, key := cacheKey(c)
		return ok, cache.Strategy{
			CacheKey:      key,
			CacheDuration: ttl,
		}
	})))
	{
		preview.GET("/decode", claimC.Decode)
		preview.POST("/decode", claimC.Decode)
	}

	return r
}

// RequestId tags the request, and every log line written on its goroutine,
// with an id.
func RequestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIdHeader)
		if id == "" {
			id = uuid.NewString()
		}

		log.SetContext(id)
		defer log.DelContext()

		c.Header(RequestIdHeader, id)
		c.Next()
	}
}

// cacheKey keys on path plus query, plus the body of json and form posts.
func cacheKey(c *gin.Context) (t bool, key string) {
	_key := c.Request.URL.Path + "?" + c.Request.URL.RawQuery
	defer func() {
		key = uuid.NewMD5(uuid.NameSpaceURL, []byte(_key)).String()
	}()
	if c.Request.Method == http.MethodPost {
		ct := c.Request.Header.Get("Content-Type")
		if strings.Contains(ct, "application/json") {
			data, _ := io.ReadAll(c.Request.Body)
			defer c.Request.Body.Close()
			c.Request.Body = io.NopCloser(bytes.NewBuffer(data))
			_key += string(data)
		} else if strings.Contains(ct, "application/x-www-form-urlencoded") {
			if c.Request.ParseForm() != nil {
				return false, key
			}
			_key += c.Request.PostForm.Encode()
		}
	}

	return true, key
}
