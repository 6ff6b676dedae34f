package domain

type Customer struct {
	RegistrationCode int64   `gorm:"column:registration_code;primaryKey;autoIncrement:false" json:"registrationCode"`
	FullName         string  `gorm:"column:full_name;size:140;not null" json:"fullName"`
	Email            string  `gorm:"size:140;not null" json:"email"`
	Telephone        string  `gorm:"size:60;not null" json:"telephone"`
	Orders           []Order `gorm:"foreignKey:CustomerCode;references:RegistrationCode;constraint:OnDelete:CASCADE" json:"-"`
}

func (Customer) TableName() string { return "customer" }
