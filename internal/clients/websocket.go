package clients

import (
	"context"
	"fmt"

	ws "loan-api/internal/transport/websocket"
)

type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{
		hub: hub,
	}
}

func (c *WebSocketClient) NotifyExportProgress(
	ctx context.Context,
	customerID int64,
	exportID string,
	progress float64,
	stage string,
) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("statement_export_progress#%d", customerID)
	data := map[string]interface{}{
		"id":       exportID,
		"progress": progress,
	}
	if stage != "" {
		data["stage"] = stage
	}

	message := &ws.Message{
		Type:    "export_progress",
		Channel: channel,
		Data:    data,
	}

	c.hub.Broadcast(customerID, message)
	return nil
}

func (c *WebSocketClient) NotifyExportComplete(
	ctx context.Context,
	customerID int64,
	exportID string,
	url string,
	filename string,
) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("statement_export_complete#%d", customerID)
	message := &ws.Message{
		Type:    "export_complete",
		Channel: channel,
		Data: map[string]interface{}{
			"id":          exportID,
			"url":         url,
			"filename":    filename,
			"customer_id": customerID,
		},
	}

	c.hub.Broadcast(customerID, message)
	return nil
}

// NotifyExportFailed notifies a customer that a statement export failed.
func (c *WebSocketClient) NotifyExportFailed(ctx context.Context, customerID int64, exportID string, errMsg string) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("statement_export_failed#%d", customerID)
	message := &ws.Message{
		Type:    "export_failed",
		Channel: channel,
		Data: map[string]interface{}{
			"id":          exportID,
			"message":     errMsg,
			"customer_id": customerID,
		},
	}

	c.hub.Broadcast(customerID, message)
	return nil
}
