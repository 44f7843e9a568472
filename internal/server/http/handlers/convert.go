package handlers

import (
	"github.com/polkiloo/archstore/internal/domain/model"
	"github.com/polkiloo/archstore/internal/server/http/dto"
)

func toProductResponse(p model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Category:    p.Category,
		Image:       p.Image,
		FileURL:     p.FileURL,
		CreatedAt:   p.CreatedAt,
	}
}

func toOrderResponse(order model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, dto.OrderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Price:       item.Price.InexactFloat64(),
			Quantity:    item.Quantity,
		})
	}
	return dto.OrderResponse{
		ID:              order.ID,
		CustomerEmail:   order.CustomerEmail,
		CustomerName:    order.CustomerName,
		Items:           items,
		Total:           order.Total.InexactFloat64(),
		Status:          string(order.Status),
		PaymentIntentID: order.PaymentIntentID,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

func toOrderItems(reqs []dto.OrderItemRequest) []model.OrderItem {
	items := make([]model.OrderItem, 0, len(reqs))
	for _, r := range reqs {
		item := model.OrderItem{ProductID: r.ProductID, ProductName: r.ProductName, Quantity: r.Quantity}
		if r.Price != nil {
			item.Price = *r.Price
		}
		items = append(items, item)
	}
	return items
}
