package bank

// ClientStatus tracks whether a client may operate.
type ClientStatus string

const (
	ClientActive     ClientStatus = "active"
	ClientSuspicious ClientStatus = "suspicious"
	ClientBlocked    ClientStatus = "blocked"
)

// Client is a directory entry owning zero or more accounts.
type Client struct {
	ID         string
	FullName   string
	Contacts   map[string]string
	Status     ClientStatus
	AccountIDs []string
}

// NewClient creates an active client.
func NewClient(id, fullName string, contacts map[string]string) *Client {
	if contacts == nil {
		contacts = make(map[string]string)
	}
	return &Client{
		ID:       id,
		FullName: fullName,
		Contacts: contacts,
		Status:   ClientActive,
	}
}

// MarkSuspicious flags the client unless already blocked.
func (c *Client) MarkSuspicious() {
	if c.Status != ClientBlocked {
		c.Status = ClientSuspicious
	}
}
