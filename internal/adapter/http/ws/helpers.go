package wshandler

import (
	ws "github.com/hoblink/hoblink-backend/pkg/wshub"
)

func errorResponse(conn *ws.Conn, message any) error {
	return conn.Send(
		map[string]any{
			"error": message,
		})
}
