package domain

// Cancel 生成撤单事件，订单是否存在由调用方确认
func Cancel(order *Order) CancelEvent {
	return CancelEvent{ID: order.ID, Symbol: order.Symbol}
}

// CancelAll 批量生成撤单事件，顺序与输入一致
func CancelAll(orders []*Order) []CancelEvent {
	events := make([]CancelEvent, 0, len(orders))
	for _, o := range orders {
		events = append(events, Cancel(o))
	}
	return events
}
