// Copyright 2023 ecodeclub
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dao

import (
	"database/sql"

	"github.com/ego-component/egorm"
	"github.com/shopspring/decimal"
)

func InitTables(db *egorm.Component) error {
	return db.AutoMigrate(
		&Order{},
		&OrderItem{},
		&Payment{},
		&Product{},
		&CartItem{},
		&Address{},
	)
}

type Order struct {
	Id                int64           `gorm:"primaryKey;autoIncrement;comment:订单自增ID"`
	SN                string          `gorm:"type:varchar(64);not null;uniqueIndex:uniq_order_sn;comment:订单序列号"`
	BuyerId           int64           `gorm:"not null;index:idx_order_buyer_id;comment:购买者ID"`
	Status            uint8           `gorm:"type:tinyint unsigned;not null;default:1;comment:订单状态 1=待支付 2=已支付 3=已发货 4=已签收 5=退货中 6=已退货 7=已取消"`
	AddressName       string          `gorm:"type:varchar(255);not null;comment:收货人"`
	AddressPhone      string          `gorm:"type:varchar(32);not null;comment:收货人电话"`
	AddressLine       string          `gorm:"type:varchar(512);not null;comment:详细地址"`
	AddressCity       string          `gorm:"type:varchar(128);not null"`
	AddressState      string          `gorm:"type:varchar(128);not null"`
	AddressPostalCode string          `gorm:"type:varchar(32);not null"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:商品小计"`
	ShippingFee       decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:运费"`
	GrandTotal        decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:应付总额 = 小计 + 运费"`
	Ctime             int64
	Utime             int64
}

type OrderItem struct {
	Id           int64           `gorm:"primaryKey;autoIncrement;comment:订单项自增ID"`
	OrderId      int64           `gorm:"not null;index:idx_item_order_id;comment:订单自增ID"`
	ProductId    int64           `gorm:"not null;index:idx_item_product_id;comment:商品ID"`
	ProductName  string          `gorm:"type:varchar(255);not null;comment:下单时的商品名称"`
	ProductSlug  string          `gorm:"type:varchar(255);not null"`
	BrandName    string          `gorm:"type:varchar(255);not null"`
	BrandSlug    string          `gorm:"type:varchar(255);not null"`
	CategoryName string          `gorm:"type:varchar(255);not null"`
	CategorySlug string          `gorm:"type:varchar(255);not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:下单时的单价"`
	Quantity     int64           `gorm:"not null;comment:购买数量"`
	TotalPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:单价 * 数量"`
	Status       uint8           `gorm:"type:tinyint unsigned;not null;default:1;comment:订单项状态, 取值同订单状态"`
	Ctime        int64
	Utime        int64
}

type Payment struct {
	Id                  int64           `gorm:"primaryKey;autoIncrement;comment:支付自增ID"`
	SN                  string          `gorm:"type:varchar(64);not null;uniqueIndex:uniq_payment_sn;comment:支付序列号, 作为网关的 receipt"`
	OrderId             int64           `gorm:"not null;index:idx_order_id_method_status;comment:订单自增ID"`
	Method              uint8           `gorm:"type:tinyint unsigned;not null;index:idx_order_id_method_status;comment:支付方式 1=货到付款 2=在线支付"`
	Status              uint8           `gorm:"type:tinyint unsigned;not null;default:1;index:idx_order_id_method_status;comment:支付状态 1=待支付 2=成功 3=失败 4=已退款"`
	Amount              decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:支付金额"`
	Currency            string          `gorm:"type:varchar(8);not null"`
	ProviderOrderRef    sql.NullString  `gorm:"type:varchar(128);uniqueIndex:uniq_provider_order_ref;comment:网关订单号"`
	ProviderPaymentRef  sql.NullString  `gorm:"type:varchar(128);comment:网关支付单号"`
	ProcessingStartedAt int64           `gorm:"not null;default:0;comment:调用网关的租约, 毫秒时间戳, 0 表示未被占用"`
	Ctime               int64
	Utime               int64
}

// Product 商品由目录服务维护, 这里只会修改库存
type Product struct {
	Id           int64           `gorm:"primaryKey;autoIncrement"`
	Slug         string          `gorm:"type:varchar(255);not null;uniqueIndex:uniq_product_slug"`
	Name         string          `gorm:"type:varchar(255);not null"`
	BrandName    string          `gorm:"type:varchar(255);not null"`
	BrandSlug    string          `gorm:"type:varchar(255);not null"`
	CategoryName string          `gorm:"type:varchar(255);not null"`
	CategorySlug string          `gorm:"type:varchar(255);not null"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock        int64           `gorm:"not null;default:0;comment:库存"`
	IsActive     bool            `gorm:"not null;comment:是否上架"`
	Ctime        int64
	Utime        int64
}

// CartItem 购物车由购物车服务维护, 下单成功后整体删除
type CartItem struct {
	Id         int64           `gorm:"primaryKey;autoIncrement"`
	BuyerId    int64           `gorm:"not null;index:idx_cart_buyer_id"`
	ProductId  int64           `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Quantity   int64           `gorm:"not null"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Ctime      int64
	Utime      int64
}

// Address 收货地址, 只读
type Address struct {
	Id         int64  `gorm:"primaryKey;autoIncrement"`
	BuyerId    int64  `gorm:"not null;index:idx_address_buyer_id"`
	Name       string `gorm:"type:varchar(255);not null"`
	Phone      string `gorm:"type:varchar(32);not null"`
	Line       string `gorm:"type:varchar(512);not null"`
	City       string `gorm:"type:varchar(128);not null"`
	State      string `gorm:"type:varchar(128);not null"`
	PostalCode string `gorm:"type:varchar(32);not null"`
	IsDefault  bool   `gorm:"not null"`
	Ctime      int64
	Utime      int64
}
