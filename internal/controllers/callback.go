package controllers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	cmap "github.com/orcaman/concurrent-map"
	"github.com/patrickmn/go-cache"

	"github.com/crochee/jobflow/internal/callback"
	"github.com/crochee/jobflow/pkg/code"
	"github.com/crochee/jobflow/pkg/resp"
)

// Callbacks receives the requests posted by callback jobs.
type Callbacks struct {
	failFirst int64
	received  cmap.ConcurrentMap
	// answered 以幂等键缓存成功的响应
	answered *cache.Cache
}

// NewCallbacks answers 503 to the first failFirst requests of every name.
func NewCallbacks(failFirst int) *Callbacks {
	return &Callbacks{
		failFirst: int64(failFirst),
		received:  cmap.New(),
		answered:  cache.New(10*time.Minute, time.Minute),
	}
}

type callbackURI struct {
	Name string `uri:"name" binding:"required"`
}

// Receive 接收回调并回显请求内容
func (cb *Callbacks) Receive(c *gin.Context) {
	var uri callbackURI
	if err := c.ShouldBindUri(&uri); err != nil {
		resp.ErrorParam(c, err)
		return
	}
	key := c.GetHeader(callback.IdempotencyHeader)
	if key != "" {
		if answer, ok := cb.answered.Get(uri.Name + "/" + key); ok {
			resp.Success(c, answer)
			return
		}
	}
	var body interface{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			resp.ErrorParam(c, err)
			return
		}
	}
	seq := cb.received.Upsert(uri.Name, int64(1), func(exist bool, old interface{}, n interface{}) interface{} {
		if exist {
			return old.(int64) + 1
		}
		return n
	}).(int64)
	if seq <= cb.failFirst {
		resp.Error(c, code.ErrCallbackUnavailable.WithResult(fmt.Sprintf("%s #%d", uri.Name, seq)))
		return
	}
	answer := gin.H{
		"name":            uri.Name,
		"seq":             seq,
		"idempotency_key": key,
		"received":        body,
	}
	if key != "" {
		cb.answered.SetDefault(uri.Name+"/"+key, answer)
	}
	resp.Success(c, answer)
}

// Count returns how many requests were received for name.
func (cb *Callbacks) Count(name string) int64 {
	v, ok := cb.received.Get(name)
	if !ok {
		return 0
	}
	return v.(int64)
}
