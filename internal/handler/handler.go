package handler

import (
	"strconv"
	"time"

	"collectmarket/internal/config"
	"collectmarket/internal/repository"
	"collectmarket/internal/service"
	"collectmarket/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	accountService *service.AccountService
	reserveService *service.ReserveService
	consignService *service.ConsignService
	zoneService    *service.ZoneService
}

// NewHandler 创建处理器实例
func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Manager) *Handler {
	return &Handler{
		accountService: service.NewAccountService(db, cfg),
		reserveService: service.NewReserveService(db, rdb, cfg),
		consignService: service.NewConsignService(db, rdb, cfg),
		zoneService:    service.NewZoneService(db, cfg),
	}
}

func parseID(c *gin.Context, key string) (int64, bool) {
	v, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil || v <= 0 {
		response.ParamError(c, key+" 参数错误")
		return 0, false
	}
	return v, true
}

// ============================================================
// 账户相关接口
// ============================================================

// GetBalance 查询六池余额
// GET /api/v1/account/balance?user_id=xxx
func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}

	account, err := h.accountService.GetAccount(c.Request.Context(), userID)
	if err != nil {
		response.BizError(c, err)
		return
	}

	response.Success(c, gin.H{
		"user_id":            account.UserID,
		"spendable":          account.Spendable,
		"withdrawable":       account.Withdrawable,
		"service_fee":        account.ServiceFee,
		"loyalty_points":     account.LoyaltyPoints,
		"compute_credits":    account.ComputeCredits,
		"pending_activation": account.PendingActivation,
		"activated":          account.Activated,
	})
}

// Recharge 充值接口（简化版，实际应该走支付渠道回调）
// POST /api/v1/account/recharge
func (h *Handler) Recharge(c *gin.Context) {
	var req service.RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	entry, err := h.accountService.Recharge(c.Request.Context(), &req)
	if err != nil {
		response.BizError(c, err)
		return
	}

	response.Success(c, gin.H{
		"flow_no": entry.FlowNo,
		"after":   entry.After,
	})
}

// Activate 激活账户，释放待激活金额
// POST /api/v1/account/activate
func (h *Handler) Activate(c *gin.Context) {
	var req struct {
		UserID int64 `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	if err := h.accountService.Activate(c.Request.Context(), req.UserID); err != nil {
		response.BizError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "激活成功"})
}

// ListFlows 流水查询
// GET /api/v1/account/flows?user_id=xxx&pool=xxx&biz_type=xxx&batch_no=xxx&page=1&page_size=20
func (h *Handler) ListFlows(c *gin.Context) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}

	q := repository.FlowQuery{
		UserID:  userID,
		Pool:    c.Query("pool"),
		BizType: c.Query("biz_type"),
		BatchNo: c.Query("batch_no"),
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if v := c.Query("begin"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.Begin = t
		}
	}
	if v := c.Query("end"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.End = t
		}
	}

	flows, total, err := h.accountService.ListFlows(c.Request.Context(), q)
	if err != nil {
		response.BizError(c, err)
		return
	}

	response.Success(c, gin.H{
		"total": total,
		"list":  flows,
	})
}

// ============================================================
// 预约相关接口
// ============================================================

// CreateReservation 预约下注
// POST /api/v1/reserve/create
func (h *Handler) CreateReservation(c *gin.Context) {
	var req service.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	rsv, err := h.reserveService.Reserve(c.Request.Context(), &req)
	if err != nil {
		response.BizError(c, err)
		return
	}

	response.Success(c, rsv)
}

// GetReservation 预约详情
// GET /api/v1/reserve/detail?id=xxx
func (h *Handler) GetReservation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	rsv, err := h.reserveService.Get(c.Request.Context(), id)
	if err != nil {
		response.BizError(c, err)
		return
	}

	response.Success(c, rsv)
}

// ListReservations 预约列表
// GET /api/v1/reserve/list?user_id=xxx&page=1&page_size=20
func (h *Handler) ListReservations(c *gin.Context) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	list, total, err := h.reserveService.ListByUser(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.BizError(c, err)
		return
	}

	response.Success(c, gin.H{
		"total": total,
		"list":  list,
	})
}

// CancelReservation 用户主动取消预约
// POST /api/v1/reserve/cancel
func (h *Handler) CancelReservation(c *gin.Context) {
	var req struct {
		ReservationID int64 `json:"reservation_id" binding:"required"`
		UserID        int64 `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	rsv, err := h.reserveService.Cancel(c.Request.Context(), req.ReservationID, req.UserID)
	if err != nil {
		response.BizError(c, err)
		return
	}

	response.Success(c, rsv)
}

// MatchReservation 中签确认（撮合结果回调）
// POST /api/v1/reserve/match
func (h *Handler) MatchReservation(c *gin.Context) {
	var req struct {
		ReservationID int64  `json:"reservation_id" binding:"required"`
		ItemID        int64  `json:"item_id" binding:"required"`
		ActualPrice   int64  `json:"actual_price" binding:"required"`
		OrderRef      string `json:"order_ref" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	rsv, err := h.reserveService.Match(c.Request.Context(),
		req.ReservationID, req.ItemID, req.ActualPrice, req.OrderRef)
	if err != nil {
		response.BizError(c, err)
		return
	}

	response.Success(c, rsv)
}

// RefundReservation 落空退款（撮合结果回调）
// POST /api/v1/reserve/refund
func (h *Handler) RefundReservation(c *gin.Context) {
	var req struct {
		ReservationID int64 `json:"reservation_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	rsv, err := h.reserveService.Refund(c.Request.Context(), req.ReservationID)
	if err != nil {
		response.BizError(c, err)
		return
	}

	response.Success(c, rsv)
}

// ============================================================
// 寄售与交易接口
// ============================================================

// CreateConsignment 挂单寄售
// POST /api/v1/consign/create
func (h *Handler) CreateConsignment(c *gin.Context) {
	var req service.ConsignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	csg, err := h.consignService.Consign(c.Request.Context(), &req)
	if err != nil {
		response.BizError(c, err)
		return
	}

	response.Success(c, csg)
}

// GetConsignment 寄售详情
// GET /api/v1/consign/detail?id=xxx
func (h *Handler) GetConsignment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	csg, err := h.consignService.Get(c.Request.Context(), id)
	if err != nil {
		response.BizError(c, err)
		return
	}

	response.Success(c, csg)
}

// ListConsignments 卖家寄售列表
// GET /api/v1/consign/list?user_id=xxx&page=1&page_size=20
func (h *Handler) ListConsignments(c *gin.Context) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	list, total, err := h.consignService.ListBySeller(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.BizError(c, err)
		return
	}

	response.Success(c, gin.H{
		"total": total,
		"list":  list,
	})
}

// PurchaseConsignment 购买寄售藏品
// POST /api/v1/consign/buy
func (h *Handler) PurchaseConsignment(c *gin.Context) {
	var req service.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.consignService.Purchase(c.Request.Context(), &req)
	if err != nil {
		response.BizError(c, err)
		return
	}

	response.Success(c, result)
}

// CancelConsignment 卖家撤回寄售
// POST /api/v1/consign/cancel
func (h *Handler) CancelConsignment(c *gin.Context) {
	var req struct {
		ConsignmentID int64 `json:"consignment_id" binding:"required"`
		UserID        int64 `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	if err := h.consignService.Cancel(c.Request.Context(), req.ConsignmentID, req.UserID); err != nil {
		response.BizError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "已撤回"})
}

// ============================================================
// 专区接口
// ============================================================

// ClassifyPrice 价格归区
// GET /api/v1/zone/classify?price=xxx
func (h *Handler) ClassifyPrice(c *gin.Context) {
	price, ok := parseID(c, "price")
	if !ok {
		return
	}

	zone, err := h.zoneService.Classify(c.Request.Context(), price)
	if err != nil {
		response.BizError(c, err)
		return
	}

	response.Success(c, zone)
}
