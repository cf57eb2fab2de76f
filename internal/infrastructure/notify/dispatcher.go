package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/OCCASS/rml/internal/domain"
	"github.com/OCCASS/rml/internal/metrics"
)

const (
	templateOrderPaid   = "order_paid"
	templatePartnership = "partnership"
)

// Dispatcher fans a message out to a fixed list of chats. It never returns
// delivery errors; each failed recipient is logged and skipped.
type Dispatcher struct {
	sender  Sender
	chatIDs []string
	log     *slog.Logger
}

func NewDispatcher(sender Sender, chatIDs []string, log *slog.Logger) *Dispatcher {
	ids := make([]string, 0, len(chatIDs))
	for _, id := range chatIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return &Dispatcher{sender: sender, chatIDs: ids, log: log}
}

// Enabled reports whether there is anyone to notify.
func (d *Dispatcher) Enabled() bool {
	return d != nil && d.sender != nil && len(d.chatIDs) > 0
}

func (d *Dispatcher) OrderPaid(ctx context.Context, order *domain.Order) {
	text := fmt.Sprintf("Новый заказ #%d оплачен.\nСостав: %s\nСумма: %s %s",
		order.ID, order.HumanReadable(), order.TotalAmount.StringFixed(2), order.Currency)
	d.broadcast(ctx, templateOrderPaid, text)
}

func (d *Dispatcher) Partnership(ctx context.Context, email, comment string) {
	if strings.TrimSpace(comment) == "" {
		comment = "—"
	}
	text := fmt.Sprintf("Форма сотрудничества:\nEmail: %s\nКомментарий: %s", email, comment)
	d.broadcast(ctx, templatePartnership, text)
}

func (d *Dispatcher) broadcast(ctx context.Context, template, text string) {
	if !d.Enabled() {
		return
	}
	for _, chatID := range d.chatIDs {
		err := d.sender.Send(ctx, chatID, text)
		metrics.RecordNotification(template, err == nil)
		if err != nil {
			d.log.Error("Notification failed", "template", template, "chat_id", chatID, "error", err)
		}
	}
}
