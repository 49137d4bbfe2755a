package metrics

import (
	"net/http"

	"github.com/arl/statsviz"
)

// Serve 在指定地址开启 statsviz 运行时监控
// 访问 http://<addr>/debug/statsviz/ 查看
func Serve(addr string) error {
	mux := http.NewServeMux()
	if err := statsviz.Register(mux); err != nil {
		return err
	}
	return http.ListenAndServe(addr, mux)
}
