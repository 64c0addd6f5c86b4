package api

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Status is the status block of the marketplace response envelope.
type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Envelope[T any] struct {
	Success bool    `json:"success"`
	Data    T       `json:"data"`
	Status  *Status `json:"status,omitempty"`
	Error   any     `json:"error,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Phone accepts phone numbers sent either as JSON numbers or strings.
type Phone string

func (p *Phone) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = Phone(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = Phone(n.String())
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type DashboardStats struct {
	TotalUsers   int64   `json:"totalUsers"`
	TotalRevenue float64 `json:"totalRevenue"`
	TotalOrders  int64   `json:"totalOrders"`
	TotalChefs   int64   `json:"totalChefs"`
}

type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

type ChefRef struct {
	ID   string `json:"_id,omitempty"`
	Name string `json:"name"`
}

type Order struct {
	ID                string    `json:"_id"`
	User              Customer  `json:"user"`
	PlanID            string    `json:"planID"`
	TotalPeople       int       `json:"totalPeople"`
	MorningMealTime   string    `json:"morningMealTime,omitempty"`
	EveningMealTime   string    `json:"eveningMealTime,omitempty"`
	ChefDayOff        string    `json:"chefDayOff"`
	PlanStartDate     time.Time `json:"planStartDate"`
	BaseAmount        float64   `json:"baseAmount"`
	ExtraPersonAmount float64   `json:"extraPersonAmount"`
	DiscountAmount    float64   `json:"discountAmount"`
	TotalAmount       float64   `json:"totalAmount"`
	RazorpayOrderID   string    `json:"razorpayOrderId"`
	Status            string    `json:"status"`
	Chef              *ChefRef  `json:"chef,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
	ExpiresAt         time.Time `json:"expiresAt"`
}

const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderCancelled = "cancelled"
	OrderFailed    = "failed"
)

// Assignable reports whether a chef can still be assigned to the order.
func (o Order) Assignable() bool {
	return o.Chef == nil && o.Status == OrderConfirmed
}

type OrderPage struct {
	Orders      []Order `json:"orders"`
	TotalPages  int     `json:"totalPages"`
	CurrentPage int     `json:"currentPage"`
	TotalOrders int     `json:"totalOrders"`
}

type AssignChefRequest struct {
	ChefID string `json:"chefId"`
}

type User struct {
	ID                 string    `json:"_id"`
	FirstName          string    `json:"firstName,omitempty"`
	LastName           string    `json:"lastName,omitempty"`
	Email              string    `json:"email,omitempty"`
	PhoneNumber        Phone     `json:"phoneNumber,omitempty"`
	IsNewUser          bool      `json:"isNewUser,omitempty"`
	Address            string    `json:"address,omitempty"`
	VerificationStatus string    `json:"verificationStatus,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type UserPage struct {
	Users       []User `json:"users"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
	TotalUsers  int    `json:"totalUsers"`
}

type UserDetails struct {
	User        User           `json:"user"`
	UserDetails map[string]any `json:"userDetails,omitempty"`
}

type Chef struct {
	ID                 string    `json:"_id"`
	FirstName          string    `json:"firstname"`
	LastName           string    `json:"lastname"`
	Email              string    `json:"email,omitempty"`
	PhoneNumber        Phone     `json:"phoneNumber,omitempty"`
	Experience         float64   `json:"experience,omitempty"`
	Rating             float64   `json:"rating,omitempty"`
	Speciality         []string  `json:"speciality,omitempty"`
	VerificationStatus string    `json:"verificationStatus,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (c Chef) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

const (
	VerificationPending  = "Pending"
	VerificationVerified = "Verified"
	VerificationRejected = "Rejected"
)

type ChefPage struct {
	Chefs       []Chef `json:"chefs"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
	TotalChefs  int    `json:"totalChefs"`
}

// NewChef is the onboarding form. Documents (photo, resume, certificates) are
// uploaded separately and are not part of this payload.
type NewChef struct {
	Name                string   `json:"name"`
	Gender              string   `json:"gender"`
	CanCook             bool     `json:"canCook"`
	PreviousWorkplace   []string `json:"previousWorkplace"`
	ReadyForHomeKitchen bool     `json:"readyForHomeKitchen"`
	PreferredCities     []string `json:"preferredCities"`
	CurrentCity         string   `json:"currentCity"`
	CurrentArea         string   `json:"currentArea"`
	Cuisines            []string `json:"cuisines"`
	TravelMode          string   `json:"travelMode"`
	CooksNonVeg         bool     `json:"cooksNonVeg"`
	ReadingLanguage     string   `json:"readingLanguage"`
	ExperienceYears     string   `json:"experienceYears"`
	CurrentSalary       float64  `json:"currentSalary"`
	PhoneNo             Phone    `json:"PhoneNo"`
}

type ChefVerification struct {
	ChefID             string `json:"chefId"`
	VerificationStatus string `json:"verificationStatus"`
}

type Plan struct {
	ID                string   `json:"_id,omitempty"`
	Type              string   `json:"type"`
	Description       string   `json:"description"`
	Features          []string `json:"features"`
	MorningPrice      float64  `json:"morningPrice"`
	EveningPrice      float64  `json:"eveningPrice"`
	ServesUpto        int      `json:"servesUpto"`
	ExtraPersonCharge float64  `json:"extraPersonCharge"`
}

type Coupon struct {
	ID              string   `json:"_id,omitempty"`
	Code            string   `json:"code"`
	DiscountType    string   `json:"discountType"`
	DiscountValue   float64  `json:"discountValue"`
	Description     string   `json:"description,omitempty"`
	ApplicablePlans []string `json:"applicablePlans"`
	MaxDiscount     *float64 `json:"maxDiscount"`
	IsActive        bool     `json:"isActive"`
}

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// couponWire is how the API returns coupons: applicable plans are populated objects.
type couponWire struct {
	ID              string          `json:"_id,omitempty"`
	Code            string          `json:"code"`
	DiscountType    string          `json:"discountType"`
	DiscountValue   float64         `json:"discountValue"`
	Description     string          `json:"description,omitempty"`
	ApplicablePlans json.RawMessage `json:"applicablePlans"`
	MaxDiscount     *float64        `json:"maxDiscount"`
	IsActive        bool            `json:"isActive"`
}

func (c *Coupon) UnmarshalJSON(b []byte) error {
	var w couponWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*c = Coupon{
		ID:            w.ID,
		Code:          w.Code,
		DiscountType:  w.DiscountType,
		DiscountValue: w.DiscountValue,
		Description:   w.Description,
		MaxDiscount:   w.MaxDiscount,
		IsActive:      w.IsActive,
	}
	if len(w.ApplicablePlans) == 0 || string(w.ApplicablePlans) == "null" {
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(w.ApplicablePlans, &raw); err != nil {
		return err
	}
	for _, item := range raw {
		var id string
		if err := json.Unmarshal(item, &id); err == nil {
			c.ApplicablePlans = append(c.ApplicablePlans, id)
			continue
		}
		var p Plan
		if err := json.Unmarshal(item, &p); err != nil {
			return err
		}
		c.ApplicablePlans = append(c.ApplicablePlans, p.Type)
	}
	return nil
}

type ChefContact struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	PhoneNo string `json:"PhoneNo"`
}

type Ticket struct {
	ID          string      `json:"_id"`
	Chef        ChefContact `json:"chef"`
	Subject     string      `json:"subject"`
	Description string      `json:"description"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type TicketStatus struct {
	Status string `json:"status"`
}

// SupportQuery is a contact-form message from a customer.
type SupportQuery struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber Phone     `json:"phoneNumber"`
	Message     string    `json:"message"`
	Status      string    `json:"status"`
	Comment     string    `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

const QueryResponded = "Responded"

type QueryResponse struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

type Image struct {
	ID       string `json:"_id"`
	ImageURL string `json:"imageUrl"`
}

type ImageList struct {
	Images []Image `json:"images"`
}

type Post struct {
	ID              string    `json:"_id"`
	PostBy          *string   `json:"postBy"`
	Likes           []string  `json:"likes"`
	PostImage       string    `json:"postImage,omitempty"`
	PostDescription string    `json:"postDescription"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type PostPage struct {
	Posts       []Post `json:"posts"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
	TotalPosts  int    `json:"totalPosts"`
}

type Notification struct {
	ID          string    `json:"_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type MealScheduleRequest struct {
	UserID string `json:"userId"`
	Date   string `json:"date"`
}

type MealSchedule struct {
	Breakfast string `json:"breakfast"`
	Lunch     string `json:"lunch"`
	Dinner    string `json:"dinner"`
}
