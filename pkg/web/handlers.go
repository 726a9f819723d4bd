package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/flowforge/pkg/debug"
	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/dukex/flowforge/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	flowService *services.Flow
	validator   *validator.Validate
}

func NewAPIHandlers(flowService *services.Flow, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		flowService: flowService,
		validator:   validator,
	}
}

// Register mounts every flow API route on router.
func (h *APIHandlers) Register(router fiber.Router) {
	router.Get("/health", h.HealthCheck)

	f := router.Group("/flows")
	f.Get("/", h.GetFlows)
	f.Post("/", h.CreateFlow)
	f.Get("/:code", h.GetFlow)
	f.Patch("/:code", h.UpdateFlow)
	f.Delete("/:code", h.DeleteFlow)
	f.Put("/:code/nodes", h.SaveNodes)
	f.Post("/:code/enable", h.ChangeEnable)
	f.Post("/:code/publish", h.PublishFlow)
	f.Post("/:code/rollback/:versionCode", h.RollbackFlow)
	f.Get("/:code/versions", h.GetVersions)
	f.Get("/:code/versions/:versionCode", h.GetVersion)
	f.Get("/:code/contract", h.GetContract)
	f.Get("/:code/debug-result", h.GetDebugResult)
	f.Post("/:code/debug-result", h.ResolveDebugResult)

	n := router.Group("/node-types")
	n.Get("/", h.GetNodeTypes)
	n.Get("/:type/template", h.GetNodeTemplate)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	check, ok := h.flowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Flowforge API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "Flowforge API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"service": check,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetFlows(c fiber.Ctx) error {
	opts := persistence.ListFlowsOptions{
		OrganizationCode: c.Query("organization_code"),
		Type:             models.FlowType(c.Query("type")),
	}

	var err error

	if opts.Limit, err = queryInt(c, "limit"); err != nil || opts.Limit < 0 {
		return badRequest(c, "Invalid limit")
	}

	if opts.Offset, err = queryInt(c, "offset"); err != nil || opts.Offset < 0 {
		return badRequest(c, "Invalid offset")
	}

	flows, err := h.flowService.List(c.Context(), opts)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"flows": flows,
		"pagination": fiber.Map{
			"limit":  opts.Limit,
			"offset": opts.Offset,
		},
	})
}

func (h *APIHandlers) GetFlow(c fiber.Ctx) error {
	flow, err := h.flowService.FetchByCode(c.Context(), c.Params("code"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) CreateFlow(c fiber.Ctx) error {
	var req CreateFlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.flowService.Create(c.Context(), &models.Flow{
		OrganizationCode: req.OrganizationCode,
		Name:             req.Name,
		Description:      req.Description,
		Icon:             req.Icon,
		Type:             models.FlowType(req.Type),
		ToolSetID:        req.ToolSetID,
		Creator:          req.Creator,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateFlow(c fiber.Ctx) error {
	var req UpdateFlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.flowService.Modify(c.Context(), c.Params("code"), &models.Flow{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		ToolSetID:   req.ToolSetID,
		Modifier:    req.Modifier,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) SaveNodes(c fiber.Ctx) error {
	var req SaveNodesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	saved, err := h.flowService.SaveNodes(c.Context(), c.Params("code"), &models.Flow{
		Nodes:          req.Nodes,
		Edges:          req.Edges,
		GlobalVariable: req.GlobalVariable,
		Name:           req.Name,
		Description:    req.Description,
		Icon:           req.Icon,
		Modifier:       req.Modifier,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(saved)
}

func (h *APIHandlers) ChangeEnable(c fiber.Ctx) error {
	var req ChangeEnableRequest
	if err := bindOptional(c, &req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	flow, err := h.flowService.ChangeEnable(c.Context(), c.Params("code"), req.Enable, req.Modifier)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) PublishFlow(c fiber.Ctx) error {
	var req PublishRequest
	if err := bindOptional(c, &req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	flow, version, err := h.flowService.Publish(c.Context(), c.Params("code"), services.PublishRequest{
		Name:        req.Name,
		Description: req.Description,
		Modifier:    req.Modifier,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(PublishResponse{Flow: flow, Version: version})
}

func (h *APIHandlers) RollbackFlow(c fiber.Ctx) error {
	var req RollbackRequest
	if err := bindOptional(c, &req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	flow, err := h.flowService.Rollback(c.Context(), c.Params("code"), c.Params("versionCode"), req.Modifier)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) DeleteFlow(c fiber.Ctx) error {
	if err := h.flowService.Delete(c.Context(), c.Params("code")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetVersions(c fiber.Ctx) error {
	list, err := h.flowService.ListVersions(c.Context(), c.Params("code"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"versions": list})
}

func (h *APIHandlers) GetVersion(c fiber.Ctx) error {
	version, err := h.flowService.GetVersion(c.Context(), c.Params("code"), c.Params("versionCode"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(version)
}

func (h *APIHandlers) GetContract(c fiber.Ctx) error {
	contract, err := h.flowService.Contract(c.Context(), c.Params("code"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(contract)
}

func (h *APIHandlers) GetDebugResult(c fiber.Ctx) error {
	collect := false

	if raw := c.Query("collect_errors"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "Invalid collect_errors")
		}

		collect = parsed
	}

	result, err := h.flowService.DebugResult(c.Context(), c.Params("code"), nil, debug.Options{CollectErrors: collect})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

// ResolveDebugResult aggregates like GetDebugResult, but the body may carry an override
// that replaces the node results, as an embedding flow does for its sub-flow.
func (h *APIHandlers) ResolveDebugResult(c fiber.Ctx) error {
	var req DebugResultRequest
	if err := bindOptional(c, &req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	result, err := h.flowService.DebugResult(c.Context(), c.Params("code"), req.Override,
		debug.Options{CollectErrors: req.CollectErrors})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	definitions := h.flowService.NodeTypes()

	nodeTypes := make([]NodeTypeResponse, 0, len(definitions))
	for _, definition := range definitions {
		nodeTypes = append(nodeTypes, newNodeTypeResponse(definition))
	}

	return c.JSON(fiber.Map{"node_types": nodeTypes})
}

func (h *APIHandlers) GetNodeTemplate(c fiber.Ctx) error {
	node, err := h.flowService.NodeTemplate(c.Params("type"), nil, c.Query("version"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func queryInt(c fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}

	return strconv.Atoi(raw)
}

// bindOptional decodes the JSON body when one was sent.
func bindOptional(c fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}

	return c.Bind().JSON(out)
}
