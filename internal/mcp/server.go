package mcp

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/paularlott/mcp"
	"golang.org/x/crypto/bcrypt"

	"subnetd/internal/export"
	"subnetd/internal/layout"
	"subnetd/internal/log"
	"subnetd/internal/model"
	"subnetd/internal/storage"
)

// Server wraps the MCP server with placement storage
type Server struct {
	mcpServer   *mcp.Server
	storage     storage.Storage
	exports     storage.ExportStore
	bearerToken string
	tokenHash   string
}

// NewServer creates a new MCP server for placement management
func NewServer(storage storage.Storage, exports storage.ExportStore, bearerToken, tokenHash string) *Server {
	s := &Server{
		mcpServer:   mcp.NewServer("subnetd", "1.0.0"),
		storage:     storage,
		exports:     exports,
		bearerToken: bearerToken,
		tokenHash:   tokenHash,
	}
	s.registerTools()
	return s
}

// registerTools registers all placement management tools
func (s *Server) registerTools() {
	// Zone set tools

	// zoneset_list - List zone sets with optional name filter
	s.mcpServer.RegisterTool(
		mcp.NewTool("zoneset_list", "List all zone sets, optionally filtered by name",
			mcp.String("name", "Filter by zone set name"),
		),
		s.handleZoneSetList,
	)

	// zoneset_get - Get a zone set by ID or name
	s.mcpServer.RegisterTool(
		mcp.NewTool("zoneset_get", "Get a zone set by ID or name",
			mcp.String("id", "Zone set ID or name", mcp.Required()),
		),
		s.handleZoneSetGet,
	)

	// Placement tools

	// placement_list - List placements with optional filtering
	s.mcpServer.RegisterTool(
		mcp.NewTool("placement_list", "List all placements, optionally filtered by name, category or zone set",
			mcp.String("name", "Filter by placement name"),
			mcp.String("category", "Filter by category (public, private, isolated)"),
			mcp.String("zoneset_id", "Filter by zone set ID"),
		),
		s.handlePlacementList,
	)

	// placement_get - Get a placement by ID or name
	s.mcpServer.RegisterTool(
		mcp.NewTool("placement_get", "Get a placement by ID or name, including its full subnet list",
			mcp.String("id", "Placement ID or name", mcp.Required()),
		),
		s.handlePlacementGet,
	)

	// placement_export - Publish a placement's export lists
	s.mcpServer.RegisterTool(
		mcp.NewTool("placement_export", "Encode a placement and publish its subnet-id and group-name lists to the export store",
			mcp.String("id", "Placement ID or name", mcp.Required()),
		),
		s.handlePlacementExport,
	)

	// subnet_import - Reconstruct subnets from exported lists
	s.mcpServer.RegisterTool(
		mcp.NewTool("subnet_import", "Reconstruct a subnet list from exported subnet ids and group names. Group names may be omitted when the export used the category default group.",
			mcp.StringArray("subnet_ids", "Exported subnet IDs"),
			mcp.StringArray("group_names", "Exported group names, one per group"),
			mcp.String("category", "Placement category (public, private, isolated)", mcp.Required()),
			mcp.String("zoneset_id", "Zone set supplying the zones", mcp.Required()),
		),
		s.handleSubnetImport,
	)
}

// HandleRequest handles MCP HTTP requests with optional bearer token authentication
func (s *Server) HandleRequest(w http.ResponseWriter, r *http.Request) {
	log.Debug("MCP request received", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)

	// Check bearer token if configured
	if s.bearerToken != "" || s.tokenHash != "" {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			log.Warn("MCP request missing Authorization header", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Missing Authorization header", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			log.Warn("MCP request invalid Authorization format", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Invalid Authorization format", http.StatusUnauthorized)
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")
		if s.tokenHash != "" {
			if bcrypt.CompareHashAndPassword([]byte(s.tokenHash), []byte(token)) != nil {
				log.Warn("MCP request invalid token", "remote_addr", r.RemoteAddr)
				http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
				return
			}
		} else if subtle.ConstantTimeCompare([]byte(token), []byte(s.bearerToken)) != 1 {
			log.Warn("MCP request invalid token", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}
	}

	s.mcpServer.HandleRequest(w, r)
}

// Zone set tool handlers

func (s *Server) handleZoneSetList(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	name, _ := req.String("name")
	log.Debug("MCP zone set list request", "name", name)

	sets, err := s.storage.ListZoneSets(&model.ZoneSetFilter{Name: name})
	if err != nil {
		log.Error("MCP zone set list failed", "error", err, "name", name)
		return nil, mcp.NewToolErrorInternal("failed to list zone sets: " + err.Error())
	}

	if len(sets) == 0 {
		return mcp.NewToolResponseText("No zone sets found"), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d zone sets:\n\n", len(sets)))
	for _, zs := range sets {
		result.WriteString(s.formatZoneSetSummary(&zs))
		result.WriteString("\n")
	}

	return mcp.NewToolResponseText(result.String()), nil
}

func (s *Server) handleZoneSetGet(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	id, err := req.String("id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("id is required: " + err.Error())
	}

	log.Debug("MCP zone set get request", "id", id)
	zs, err := s.storage.GetZoneSet(id)
	if err != nil {
		log.Error("MCP zone set get failed", "error", err, "id", id)
		return nil, mcp.NewToolErrorInternal("zone set not found: " + err.Error())
	}

	return mcp.NewToolResponseText(s.formatZoneSetSummary(zs)), nil
}

// Placement tool handlers

func (s *Server) handlePlacementList(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	name, _ := req.String("name")
	category, _ := req.String("category")
	zoneSetID, _ := req.String("zoneset_id")

	log.Debug("MCP placement list request", "name", name, "category", category, "zoneset_id", zoneSetID)

	placements, err := s.storage.ListPlacements(&model.PlacementFilter{
		Name:      name,
		Category:  model.Category(category),
		ZoneSetID: zoneSetID,
	})
	if err != nil {
		log.Error("MCP placement list failed", "error", err)
		return nil, mcp.NewToolErrorInternal("failed to list placements: " + err.Error())
	}

	if len(placements) == 0 {
		return mcp.NewToolResponseText("No placements found"), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d placements:\n\n", len(placements)))
	for _, p := range placements {
		result.WriteString(s.formatPlacementSummary(&p))
		result.WriteString("\n")
	}

	return mcp.NewToolResponseText(result.String()), nil
}

func (s *Server) handlePlacementGet(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	id, err := req.String("id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("id is required: " + err.Error())
	}

	log.Debug("MCP placement get request", "id", id)
	p, err := s.storage.GetPlacement(id)
	if err != nil {
		log.Error("MCP placement get failed", "error", err, "id", id)
		return nil, mcp.NewToolErrorInternal("placement not found: " + err.Error())
	}

	var result strings.Builder
	result.WriteString(s.formatPlacementSummary(p))
	if len(p.Subnets) > 0 {
		result.WriteString("Subnets:\n")
		for _, sn := range p.Subnets {
			result.WriteString(fmt.Sprintf("  - %s (%s) zone=%s group=%s\n", sn.Path, sn.SubnetID, sn.Zone, layout.GroupName(sn)))
		}
	}

	return mcp.NewToolResponseText(result.String()), nil
}

func (s *Server) handlePlacementExport(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	id, err := req.String("id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("id is required: " + err.Error())
	}

	log.Debug("MCP placement export request", "id", id)

	p, err := s.storage.GetPlacement(id)
	if err != nil {
		return nil, mcp.NewToolErrorInternal("placement not found: " + err.Error())
	}

	zs, err := s.storage.GetZoneSet(p.ZoneSetID)
	if err != nil {
		return nil, mcp.NewToolErrorInternal("zone set not found: " + err.Error())
	}

	res, err := export.Publish(s.exports, p, zs.Zones)
	if err != nil {
		log.Error("MCP placement export failed", "error", err, "placement", p.Name)
		return nil, mcp.NewToolErrorInternal("failed to export placement: " + err.Error())
	}

	var result strings.Builder
	if res.IDsKey == "" {
		result.WriteString(fmt.Sprintf("Placement %s is empty; export lists retracted\n", p.Name))
		return mcp.NewToolResponseText(result.String()), nil
	}

	result.WriteString(fmt.Sprintf("Exported placement %s:\n", p.Name))
	result.WriteString(fmt.Sprintf("  Subnet IDs: %s (%d entries)\n", res.IDsKey, len(res.Record.IDs)))
	if res.NamesKey != "" {
		result.WriteString(fmt.Sprintf("  Group names: %s (%s)\n", res.NamesKey, strings.Join(res.Record.Names, ", ")))
	} else {
		result.WriteString(fmt.Sprintf("  Group names omitted (single default group %s)\n", p.Category.DefaultGroupName()))
	}

	return mcp.NewToolResponseText(result.String()), nil
}

func (s *Server) handleSubnetImport(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	ids, err := req.StringSlice("subnet_ids")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("subnet_ids is required: " + err.Error())
	}

	category, err := req.String("category")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("category is required: " + err.Error())
	}
	cat := model.Category(category)
	if !cat.Valid() {
		return nil, mcp.NewToolErrorInvalidParams("category must be public, private or isolated")
	}

	zoneSetID, err := req.String("zoneset_id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("zoneset_id is required: " + err.Error())
	}

	zs, err := s.storage.GetZoneSet(zoneSetID)
	if err != nil {
		return nil, mcp.NewToolErrorInternal("zone set not found: " + err.Error())
	}

	names, _ := req.StringSlice("group_names")

	log.Debug("MCP subnet import request", "ids", len(ids), "category", cat, "zoneset_id", zoneSetID)

	subnets, err := layout.Import(ids, names, cat, zs.Zones, "subnet_ids", "group_names")
	if err != nil {
		log.Warn("MCP subnet import failed validation", "error", err)
		return nil, mcp.NewToolErrorInvalidParams(err.Error())
	}

	if len(subnets) == 0 {
		return mcp.NewToolResponseText("No subnets to import"), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Imported %d subnets:\n\n", len(subnets)))
	for _, sn := range subnets {
		result.WriteString(fmt.Sprintf("  - %s (%s) zone=%s group=%s\n", sn.Path, sn.SubnetID, sn.Zone, sn.GroupName))
	}

	return mcp.NewToolResponseText(result.String()), nil
}

// Utility functions

func (s *Server) formatZoneSetSummary(zs *model.ZoneSet) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Name: %s\n", zs.Name))
	result.WriteString(fmt.Sprintf("ID: %s\n", zs.ID))
	result.WriteString(fmt.Sprintf("Zones: %s\n", strings.Join(zs.Zones, ", ")))
	if zs.Description != "" {
		result.WriteString(fmt.Sprintf("Description: %s\n", zs.Description))
	}
	return result.String()
}

func (s *Server) formatPlacementSummary(p *model.Placement) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Name: %s\n", p.Name))
	result.WriteString(fmt.Sprintf("ID: %s\n", p.ID))
	result.WriteString(fmt.Sprintf("Category: %s\n", p.Category))
	result.WriteString(fmt.Sprintf("Zone set: %s\n", p.ZoneSetID))
	result.WriteString(fmt.Sprintf("Subnets: %d\n", len(p.Subnets)))
	if p.Description != "" {
		result.WriteString(fmt.Sprintf("Description: %s\n", p.Description))
	}
	return result.String()
}

// GetHTTPHandler returns the HTTP handler for the MCP server
func (s *Server) GetHTTPHandler() http.HandlerFunc {
	return s.HandleRequest
}

// LogStartup logs MCP server startup information
func (s *Server) LogStartup() {
	log.Info("MCP Server initialized", "version", "1.0.0")
	if s.bearerToken != "" || s.tokenHash != "" {
		log.Info("MCP authentication enabled", "type", "Bearer token")
	} else {
		log.Info("MCP authentication disabled")
	}
	tools := s.mcpServer.ListTools()
	log.Info("MCP tools registered", "count", len(tools))
	for _, tool := range tools {
		log.Debug("MCP tool registered", "name", tool.Name, "description", tool.Description)
	}
}
