package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sellerops/backend/internal/domain/courier"
	"github.com/sellerops/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// MarketCredentialModel
// ---------------------------------------------------------------------------

// MarketCredentialModel is the persistence model for the MarketCredential
// domain entity. Key columns hold vault ciphertext, never plaintext.
type MarketCredentialModel struct {
	ID                 uuid.UUID              `gorm:"type:uuid;primary_key"`
	OwnerID            uuid.UUID              `gorm:"type:uuid;not null;index:idx_market_credentials_owner,priority:1"`
	MarketCode         integration.MarketCode `gorm:"type:varchar(20);not null;index:idx_market_credentials_owner,priority:2"`
	EncryptedAPIKey    string                 `gorm:"type:text;not null"`
	EncryptedSecretKey string                 `gorm:"type:text;not null"`
	VendorID           string                 `gorm:"type:varchar(100)"`
	Active             bool                   `gorm:"not null;default:true"`
	CreatedAt          time.Time              `gorm:"not null"`
	UpdatedAt          time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MarketCredentialModel) TableName() string {
	return "market_credentials"
}

// ToDomain converts the persistence model to a domain MarketCredential.
func (m *MarketCredentialModel) ToDomain() *integration.MarketCredential {
	return &integration.MarketCredential{
		ID:                 m.ID,
		OwnerID:            m.OwnerID,
		MarketCode:         m.MarketCode,
		EncryptedAPIKey:    m.EncryptedAPIKey,
		EncryptedSecretKey: m.EncryptedSecretKey,
		VendorID:           m.VendorID,
		Active:             m.Active,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain MarketCredential.
func (m *MarketCredentialModel) FromDomain(c *integration.MarketCredential) {
	m.ID = c.ID
	m.OwnerID = c.OwnerID
	m.MarketCode = c.MarketCode
	m.EncryptedAPIKey = c.EncryptedAPIKey
	m.EncryptedSecretKey = c.EncryptedSecretKey
	m.VendorID = c.VendorID
	m.Active = c.Active
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// ---------------------------------------------------------------------------
// CourierCompanyModel
// ---------------------------------------------------------------------------

// CourierCompanyModel is the persistence model for a courier company and its
// per-marketplace code mappings.
type CourierCompanyModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	InternalCode    string    `gorm:"type:varchar(30);not null;uniqueIndex"`
	DisplayName     string    `gorm:"type:varchar(100);not null"`
	MarketCodesJSON string    `gorm:"type:jsonb;column:market_codes"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CourierCompanyModel) TableName() string {
	return "courier_companies"
}

// ToDomain converts the persistence model to a domain Company.
func (m *CourierCompanyModel) ToDomain() courier.Company {
	company := courier.Company{
		InternalCode: m.InternalCode,
		DisplayName:  m.DisplayName,
		MarketCodes:  make(map[integration.MarketCode]string),
	}
	if m.MarketCodesJSON != "" {
		var codes map[integration.MarketCode]string
		if err := json.Unmarshal([]byte(m.MarketCodesJSON), &codes); err == nil {
			company.MarketCodes = codes
		}
	}
	return company
}

// FromDomain populates the persistence model from a domain Company.
func (m *CourierCompanyModel) FromDomain(c courier.Company) {
	m.InternalCode = c.InternalCode
	m.DisplayName = c.DisplayName
	if len(c.MarketCodes) > 0 {
		if jsonBytes, err := json.Marshal(c.MarketCodes); err == nil {
			m.MarketCodesJSON = string(jsonBytes)
		}
	} else {
		m.MarketCodesJSON = "{}"
	}
}

// ---------------------------------------------------------------------------
// PushAuditLogModel
// ---------------------------------------------------------------------------

// PushAuditLogModel is the persistence model for one push attempt-chain
// outcome. The table is append-only.
type PushAuditLogModel struct {
	ID                 uuid.UUID              `gorm:"type:uuid;primary_key"`
	OwnerID            uuid.UUID              `gorm:"type:uuid;not null;index:idx_push_audit_owner_kind,priority:1"`
	SubjectID          string                 `gorm:"type:varchar(100);not null;index:idx_push_audit_subject"`
	MarketCredentialID *uuid.UUID             `gorm:"type:uuid"`
	MarketCode         integration.MarketCode `gorm:"type:varchar(20);not null"`
	Kind               integration.PushKind   `gorm:"type:varchar(20);not null;index:idx_push_audit_owner_kind,priority:2"`
	Status             integration.PushStatus `gorm:"type:varchar(20);not null"`
	FailureCategory    *string                `gorm:"type:varchar(20)"`
	StatusCode         *int                   `gorm:""`
	Attempts           int                    `gorm:"not null;default:0"`
	Message            string                 `gorm:"type:text"`
	SourceBatchID      uuid.UUID              `gorm:"type:uuid;not null;index:idx_push_audit_batch"`
	CreatedAt          time.Time              `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PushAuditLogModel) TableName() string {
	return "push_audit_logs"
}

// ToDomain converts the persistence model to a domain PushAuditLogEntry.
func (m *PushAuditLogModel) ToDomain() integration.PushAuditLogEntry {
	entry := integration.PushAuditLogEntry{
		ID:                 m.ID,
		OwnerID:            m.OwnerID,
		SubjectID:          m.SubjectID,
		MarketCredentialID: m.MarketCredentialID,
		MarketCode:         m.MarketCode,
		Kind:               m.Kind,
		Status:             m.Status,
		StatusCode:         m.StatusCode,
		Attempts:           m.Attempts,
		Message:            m.Message,
		SourceBatchID:      m.SourceBatchID,
		CreatedAt:          m.CreatedAt,
	}
	if m.FailureCategory != nil {
		category := integration.FailureCategory(*m.FailureCategory)
		entry.FailureCategory = &category
	}
	return entry
}

// FromDomain populates the persistence model from a domain PushAuditLogEntry.
func (m *PushAuditLogModel) FromDomain(e *integration.PushAuditLogEntry) {
	m.ID = e.ID
	m.OwnerID = e.OwnerID
	m.SubjectID = e.SubjectID
	m.MarketCredentialID = e.MarketCredentialID
	m.MarketCode = e.MarketCode
	m.Kind = e.Kind
	m.Status = e.Status
	m.StatusCode = e.StatusCode
	m.Attempts = e.Attempts
	m.Message = e.Message
	m.SourceBatchID = e.SourceBatchID
	m.CreatedAt = e.CreatedAt
	if e.FailureCategory != nil {
		category := e.FailureCategory.String()
		m.FailureCategory = &category
	}
}

// ---------------------------------------------------------------------------
// MarketOrderModel
// ---------------------------------------------------------------------------

// MarketOrderModel is the persistence model for a synced marketplace order.
// The (owner_id, market_code, external_id) triple is the idempotency key.
type MarketOrderModel struct {
	ID            uuid.UUID              `gorm:"type:uuid;primary_key"`
	OwnerID       uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:uq_market_orders_identity,priority:1"`
	MarketCode    integration.MarketCode `gorm:"type:varchar(20);not null;uniqueIndex:uq_market_orders_identity,priority:2"`
	ExternalID    string                 `gorm:"type:varchar(100);not null;uniqueIndex:uq_market_orders_identity,priority:3"`
	OrdererName   string                 `gorm:"type:varchar(100)"`
	ReceiverName  string                 `gorm:"type:varchar(100)"`
	ReceiverPhone string                 `gorm:"type:varchar(30)"`
	Address       string                 `gorm:"type:varchar(500)"`
	PostalCode    string                 `gorm:"type:varchar(20)"`
	Status        string                 `gorm:"type:varchar(50)"`
	TotalAmount   decimal.Decimal        `gorm:"type:decimal(15,2);not null;default:0"`
	OrderedAt     *time.Time             `gorm:"index"`
	CreatedAt     time.Time              `gorm:"not null"`
	UpdatedAt     time.Time              `gorm:"not null"`

	Items []MarketOrderItemModel `gorm:"foreignKey:MarketOrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (MarketOrderModel) TableName() string {
	return "market_orders"
}

// MarketOrderItemModel is one line item of a synced marketplace order.
// Items are replaced wholesale on every upsert.
type MarketOrderItemModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	MarketOrderID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ExternalItemID string          `gorm:"type:varchar(100)"`
	ProductName    string          `gorm:"type:varchar(255)"`
	OptionName     string          `gorm:"type:varchar(255)"`
	Quantity       int             `gorm:"not null;default:0"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	CreatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MarketOrderItemModel) TableName() string {
	return "market_order_items"
}

// ToDomain converts the persistence model to a domain NormalizedOrder.
func (m *MarketOrderModel) ToDomain() *integration.NormalizedOrder {
	order := &integration.NormalizedOrder{
		ExternalID:    m.ExternalID,
		MarketCode:    m.MarketCode,
		OrdererName:   m.OrdererName,
		ReceiverName:  m.ReceiverName,
		ReceiverPhone: m.ReceiverPhone,
		Address:       m.Address,
		PostalCode:    m.PostalCode,
		Status:        m.Status,
		TotalAmount:   m.TotalAmount,
	}
	if m.OrderedAt != nil {
		order.OrderedAt = *m.OrderedAt
	}
	for _, item := range m.Items {
		order.Items = append(order.Items, integration.NormalizedOrderItem{
			ExternalItemID: item.ExternalItemID,
			ProductName:    item.ProductName,
			OptionName:     item.OptionName,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
		})
	}
	return order
}

// FromDomain populates the persistence model from a domain NormalizedOrder.
// ID and OwnerID are assigned by the repository, not the domain value.
func (m *MarketOrderModel) FromDomain(o *integration.NormalizedOrder) {
	m.MarketCode = o.MarketCode
	m.ExternalID = o.ExternalID
	m.OrdererName = o.OrdererName
	m.ReceiverName = o.ReceiverName
	m.ReceiverPhone = o.ReceiverPhone
	m.Address = o.Address
	m.PostalCode = o.PostalCode
	m.Status = o.Status
	m.TotalAmount = o.TotalAmount
	if !o.OrderedAt.IsZero() {
		orderedAt := o.OrderedAt
		m.OrderedAt = &orderedAt
	}
}

// ---------------------------------------------------------------------------
// MarketInquiryModel
// ---------------------------------------------------------------------------

// MarketInquiryModel is the persistence model for a synced CS inquiry.
type MarketInquiryModel struct {
	ID              uuid.UUID              `gorm:"type:uuid;primary_key"`
	OwnerID         uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:uq_market_inquiries_identity,priority:1"`
	MarketCode      integration.MarketCode `gorm:"type:varchar(20);not null;uniqueIndex:uq_market_inquiries_identity,priority:2"`
	ExternalID      string                 `gorm:"type:varchar(100);not null;uniqueIndex:uq_market_inquiries_identity,priority:3"`
	OrderExternalID string                 `gorm:"type:varchar(100);index"`
	Title           string                 `gorm:"type:varchar(255)"`
	Content         string                 `gorm:"type:text"`
	AskedAt         *time.Time             `gorm:"index"`
	Answered        bool                   `gorm:"not null;default:false"`
	CreatedAt       time.Time              `gorm:"not null"`
	UpdatedAt       time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MarketInquiryModel) TableName() string {
	return "market_inquiries"
}

// ToDomain converts the persistence model to a domain NormalizedInquiry.
func (m *MarketInquiryModel) ToDomain() *integration.NormalizedInquiry {
	inquiry := &integration.NormalizedInquiry{
		ExternalID:      m.ExternalID,
		MarketCode:      m.MarketCode,
		OrderExternalID: m.OrderExternalID,
		Title:           m.Title,
		Content:         m.Content,
		Answered:        m.Answered,
	}
	if m.AskedAt != nil {
		inquiry.AskedAt = *m.AskedAt
	}
	return inquiry
}

// FromDomain populates the persistence model from a domain NormalizedInquiry.
// ID and OwnerID are assigned by the repository, not the domain value.
func (m *MarketInquiryModel) FromDomain(i *integration.NormalizedInquiry) {
	m.MarketCode = i.MarketCode
	m.ExternalID = i.ExternalID
	m.OrderExternalID = i.OrderExternalID
	m.Title = i.Title
	m.Content = i.Content
	m.Answered = i.Answered
	if !i.AskedAt.IsZero() {
		askedAt := i.AskedAt
		m.AskedAt = &askedAt
	}
}
