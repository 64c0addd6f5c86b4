package api

import (
	"time"

	"github.com/homy/homyadmin/view"
)

// Field lookups used by the table views. Empty strings and zero times count as absent
// so they sort after real values.

func str(s string) (any, bool) {
	return s, s != ""
}

func ts(t time.Time) (any, bool) {
	return t, !t.IsZero()
}

func (o Order) Field(name string) (any, bool) {
	switch name {
	case "_id", "id":
		return str(o.ID)
	case "user.firstName":
		return str(o.User.FirstName)
	case "user.lastName":
		return str(o.User.LastName)
	case "customer":
		return str(o.User.FullName())
	case "planID":
		return str(o.PlanID)
	case "totalPeople":
		return o.TotalPeople, true
	case "morningMealTime":
		return str(o.MorningMealTime)
	case "eveningMealTime":
		return str(o.EveningMealTime)
	case "chefDayOff":
		return str(o.ChefDayOff)
	case "planStartDate":
		return ts(o.PlanStartDate)
	case "baseAmount":
		return o.BaseAmount, true
	case "extraPersonAmount":
		return o.ExtraPersonAmount, true
	case "discountAmount":
		return o.DiscountAmount, true
	case "totalAmount":
		return o.TotalAmount, true
	case "razorpayOrderId":
		return str(o.RazorpayOrderID)
	case "status":
		return str(o.Status)
	case "chef", "chef.name":
		if o.Chef == nil {
			return nil, false
		}
		return str(o.Chef.Name)
	case "createdAt":
		return ts(o.CreatedAt)
	case "updatedAt":
		return ts(o.UpdatedAt)
	case "expiresAt":
		return ts(o.ExpiresAt)
	}
	return nil, false
}

func (u User) Field(name string) (any, bool) {
	switch name {
	case "_id", "id":
		return str(u.ID)
	case "firstName":
		return str(u.FirstName)
	case "lastName":
		return str(u.LastName)
	case "email":
		return str(u.Email)
	case "phoneNumber":
		return str(string(u.PhoneNumber))
	case "address":
		return str(u.Address)
	case "isNewUser":
		return u.IsNewUser, true
	case "verificationStatus", "status":
		return str(u.VerificationStatus)
	case "createdAt":
		return ts(u.CreatedAt)
	case "updatedAt":
		return ts(u.UpdatedAt)
	}
	return nil, false
}

func (c Chef) Field(name string) (any, bool) {
	switch name {
	case "_id", "id":
		return str(c.ID)
	case "firstname", "firstName":
		return str(c.FirstName)
	case "lastname", "lastName":
		return str(c.LastName)
	case "name":
		return str(c.FullName())
	case "email":
		return str(c.Email)
	case "phoneNumber":
		return str(string(c.PhoneNumber))
	case "experience":
		return c.Experience, true
	case "rating":
		return c.Rating, true
	case "speciality":
		return c.Speciality, len(c.Speciality) > 0
	case "verificationStatus", "status":
		return str(c.VerificationStatus)
	case "createdAt":
		return ts(c.CreatedAt)
	case "updatedAt":
		return ts(c.UpdatedAt)
	}
	return nil, false
}

func (p Plan) Field(name string) (any, bool) {
	switch name {
	case "_id", "id":
		return str(p.ID)
	case "type":
		return str(p.Type)
	case "description":
		return str(p.Description)
	case "features":
		return p.Features, len(p.Features) > 0
	case "morningPrice":
		return p.MorningPrice, true
	case "eveningPrice":
		return p.EveningPrice, true
	case "servesUpto":
		return p.ServesUpto, true
	case "extraPersonCharge":
		return p.ExtraPersonCharge, true
	}
	return nil, false
}

func (c Coupon) Field(name string) (any, bool) {
	switch name {
	case "_id", "id":
		return str(c.ID)
	case "code":
		return str(c.Code)
	case "discountType":
		return str(c.DiscountType)
	case "discountValue":
		return c.DiscountValue, true
	case "description":
		return str(c.Description)
	case "applicablePlans":
		return c.ApplicablePlans, len(c.ApplicablePlans) > 0
	case "maxDiscount":
		if c.MaxDiscount == nil {
			return nil, false
		}
		return *c.MaxDiscount, true
	case "isActive":
		return c.IsActive, true
	}
	return nil, false
}

func (t Ticket) Field(name string) (any, bool) {
	switch name {
	case "_id", "id":
		return str(t.ID)
	case "chef.name", "chef":
		return str(t.Chef.Name)
	case "chef.PhoneNo":
		return str(t.Chef.PhoneNo)
	case "subject":
		return str(t.Subject)
	case "description":
		return str(t.Description)
	case "status":
		return str(t.Status)
	case "createdAt":
		return ts(t.CreatedAt)
	case "updatedAt":
		return ts(t.UpdatedAt)
	}
	return nil, false
}

func (q SupportQuery) Field(name string) (any, bool) {
	switch name {
	case "_id", "id":
		return str(q.ID)
	case "name":
		return str(q.Name)
	case "email":
		return str(q.Email)
	case "phoneNumber":
		return str(string(q.PhoneNumber))
	case "message":
		return str(q.Message)
	case "status":
		return str(q.Status)
	case "comment":
		return str(q.Comment)
	case "createdAt":
		return ts(q.CreatedAt)
	}
	return nil, false
}

func (i Image) Field(name string) (any, bool) {
	switch name {
	case "_id", "id":
		return str(i.ID)
	case "imageUrl":
		return str(i.ImageURL)
	}
	return nil, false
}

func (p Post) Field(name string) (any, bool) {
	switch name {
	case "_id", "id":
		return str(p.ID)
	case "postBy":
		if p.PostBy == nil {
			return nil, false
		}
		return str(*p.PostBy)
	case "likes":
		return len(p.Likes), true
	case "postDescription":
		return str(p.PostDescription)
	case "createdAt":
		return ts(p.CreatedAt)
	case "updatedAt":
		return ts(p.UpdatedAt)
	}
	return nil, false
}

func (n Notification) Field(name string) (any, bool) {
	switch name {
	case "_id", "id":
		return str(n.ID)
	case "title":
		return str(n.Title)
	case "description":
		return str(n.Description)
	case "createdAt":
		return ts(n.CreatedAt)
	case "updatedAt":
		return ts(n.UpdatedAt)
	}
	return nil, false
}

// Layout describes how an entity is presented in a table: which fields the search
// box looks at, the initial sort, and the columns shown.
type Layout struct {
	SearchFields []string
	DefaultSort  view.SortSpec
	Columns      []string
}

var (
	OrderLayout = Layout{
		SearchFields: []string{"user.firstName", "user.lastName"},
		DefaultSort:  view.SortSpec{Field: "createdAt", Direction: view.Descending},
		Columns:      []string{"_id", "customer", "totalPeople", "morningMealTime", "eveningMealTime", "chefDayOff", "totalAmount", "status", "chef.name", "createdAt"},
	}
	UserLayout = Layout{
		SearchFields: []string{"firstName", "lastName", "email", "phoneNumber"},
		DefaultSort:  view.SortSpec{Field: "createdAt", Direction: view.Descending},
		Columns:      []string{"_id", "firstName", "lastName", "email", "phoneNumber", "verificationStatus"},
	}
	ChefLayout = Layout{
		SearchFields: []string{"firstname", "lastname", "email", "phoneNumber"},
		DefaultSort:  view.SortSpec{Field: "createdAt", Direction: view.Descending},
		Columns:      []string{"_id", "firstname", "lastname", "email", "rating", "verificationStatus"},
	}
	PlanLayout = Layout{
		SearchFields: []string{"type", "description", "features"},
		DefaultSort:  view.SortSpec{Field: "type"},
		Columns:      []string{"_id", "type", "morningPrice", "eveningPrice", "servesUpto", "extraPersonCharge"},
	}
	CouponLayout = Layout{
		SearchFields: []string{"code", "description", "discountType"},
		DefaultSort:  view.SortSpec{Field: "code"},
		Columns:      []string{"_id", "code", "discountType", "discountValue", "maxDiscount", "isActive"},
	}
	TicketLayout = Layout{
		SearchFields: []string{"subject", "description", "chef.name", "status"},
		DefaultSort:  view.SortSpec{Field: "createdAt", Direction: view.Descending},
		Columns:      []string{"_id", "chef.name", "chef.PhoneNo", "subject", "status", "createdAt"},
	}
	QueryLayout = Layout{
		SearchFields: []string{"name", "email", "phoneNumber", "message"},
		DefaultSort:  view.SortSpec{Field: "createdAt", Direction: view.Descending},
		Columns:      []string{"_id", "name", "email", "phoneNumber", "status", "createdAt"},
	}
	ImageLayout = Layout{
		SearchFields: []string{"imageUrl"},
		Columns:      []string{"_id", "imageUrl"},
	}
	PostLayout = Layout{
		SearchFields: []string{"postDescription", "postBy"},
		DefaultSort:  view.SortSpec{Field: "createdAt", Direction: view.Descending},
		Columns:      []string{"_id", "postBy", "postDescription", "likes", "createdAt"},
	}
	NotificationLayout = Layout{
		SearchFields: []string{"title", "description"},
		DefaultSort:  view.SortSpec{Field: "createdAt", Direction: view.Descending},
		Columns:      []string{"_id", "title", "description", "createdAt"},
	}
)
