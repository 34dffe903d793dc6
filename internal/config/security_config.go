// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityActor                       // Any valid actor token (kiosk session, staff)
	SecurityStaff                       // Admin or maintenance role required
)

// EndpointSecurityConfig maps methods to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Read-only status
	"/kiosk.inventory.v1.InventoryService/GetStockSnapshot": SecurityPublic,

	// Kiosk flows
	"/kiosk.inventory.v1.InventoryService/Borrow":         SecurityActor,
	"/kiosk.inventory.v1.InventoryService/Return":         SecurityActor,
	"/kiosk.inventory.v1.InventoryService/GetTransaction": SecurityActor,

	// Approval of bulky borrows
	"/kiosk.inventory.v1.InventoryService/ApproveBorrow": SecurityStaff,
	"/kiosk.inventory.v1.InventoryService/RejectBorrow":  SecurityStaff,

	// Maintenance tracker
	"/kiosk.inventory.v1.InventoryService/CreateMaintenanceTicket": SecurityStaff,
	"/kiosk.inventory.v1.InventoryService/UpdateMaintenanceTicket": SecurityStaff,
	"/kiosk.inventory.v1.InventoryService/DeleteMaintenanceTicket": SecurityStaff,
	"/kiosk.inventory.v1.InventoryService/GetMaintenanceTicket":    SecurityStaff,
	"/kiosk.inventory.v1.InventoryService/ListMaintenanceTickets":  SecurityStaff,
	"/kiosk.inventory.v1.InventoryService/MaintenanceStatistics":   SecurityStaff,
}

// GetSecurityLevel returns the level for a method. Unknown methods
// default to the strictest level.
func GetSecurityLevel(method string) SecurityLevel {
	if level, ok := EndpointSecurityConfig[method]; ok {
		return level
	}
	return SecurityStaff
}
