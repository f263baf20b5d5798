package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/chromedp/chromedp"
)

type renderRequest struct {
	URL     string `json:"url"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	ScrollY int    `json:"scrollY"`
}

type renderResponse struct {
	OK      bool   `json:"ok"`
	HTML    string `json:"html,omitempty"`
	Visible []int  `json:"visible,omitempty"`
	Error   string `json:"error,omitempty"`
}

type pageState struct {
	HTML    string `json:"html"`
	Visible []int  `json:"visible"`
}

func main() {
	// 创建浏览器执行器与顶层上下文，整个进程复用一个 headless 实例
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// 预热浏览器，避免首个请求耗时过长
	if err := chromedp.Run(browserCtx); err != nil {
		log.Printf("warn: warmup chromedp failed: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/render", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req renderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, renderResponse{OK: false, Error: "invalid json"})
			return
		}
		if req.URL == "" {
			writeJSON(w, http.StatusBadRequest, renderResponse{OK: false, Error: "url is required"})
			return
		}
		normalize(&req)

		// 每个请求开一个新标签页，互不干扰视口与滚动位置
		tabCtx, cancelTab := chromedp.NewContext(browserCtx)
		defer cancelTab()
		ctx, cancel := context.WithTimeout(tabCtx, 30*time.Second)
		defer cancel()

		var st pageState
		err := chromedp.Run(ctx,
			chromedp.EmulateViewport(int64(req.Width), int64(req.Height)),
			chromedp.Navigate(req.URL),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Evaluate(scrollJS(req.ScrollY), nil),
			chromedp.Evaluate(visibleJS, &st),
		)
		if err != nil {
			log.Printf("render error: %v (url=%s)", err, req.URL)
			writeJSON(w, http.StatusOK, renderResponse{OK: false, Error: err.Error()})
			return
		}
		if st.HTML == "" {
			writeJSON(w, http.StatusOK, renderResponse{OK: false, Error: "empty document"})
			return
		}

		writeJSON(w, http.StatusOK, renderResponse{OK: true, HTML: st.HTML, Visible: st.Visible})
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	addr := ":" + getEnv("PORT", "4000")
	log.Printf("page-renderer listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("http server error: %v", err)
	}
}

// normalize 给视口尺寸兜底，避免 0 宽高导致没有可见区域
func normalize(req *renderRequest) {
	if req.Width <= 0 || req.Width > 7680 {
		req.Width = 1280
	}
	if req.Height <= 0 || req.Height > 4320 {
		req.Height = 800
	}
	if req.ScrollY < 0 {
		req.ScrollY = 0
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func scrollJS(y int) string {
	return "window.scrollTo(0, " + strconv.Itoa(y) + "); true"
}

// visibleJS 返回序列化后的文档，以及完全落在视口内的 p/div/a 在文档顺序里的下标。
// 下标与服务端 goquery 选择 "p, div, a" 的顺序一致。
const visibleJS = `(function () {
  var nodes = document.querySelectorAll("p, div, a");
  var h = window.innerHeight || document.documentElement.clientHeight;
  var w = window.innerWidth || document.documentElement.clientWidth;
  var visible = [];
  for (var i = 0; i < nodes.length; i++) {
    var r = nodes[i].getBoundingClientRect();
    if (r.top >= 0 && r.left >= 0 && r.bottom <= h && r.right <= w) {
      visible.push(i);
    }
  }
  return { html: document.documentElement.outerHTML, visible: visible };
})();`
