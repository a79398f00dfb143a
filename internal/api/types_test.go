package api

import (
	"encoding/json"
	"testing"
)

func TestProductAcceptsEitherIdentifier(t *testing.T) {
	var a, b Product
	if err := json.Unmarshal([]byte(`{"_id":"p1","title":"Shoe","price":10}`), &a); err != nil {
		t.Fatalf("unmarshal _id: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"id":"p2","title":"Hat","price":5,"priceAfterDiscount":4}`), &b); err != nil {
		t.Fatalf("unmarshal id: %v", err)
	}
	if a.ID != "p1" || b.ID != "p2" {
		t.Fatalf("ids = %q, %q", a.ID, b.ID)
	}
	if b.EffectivePrice() != 4 || a.EffectivePrice() != 10 {
		t.Fatalf("effective prices = %v, %v", a.EffectivePrice(), b.EffectivePrice())
	}
}

func TestCartItemProductRef(t *testing.T) {
	var resp CartResponse
	payload := `{"status":"success","numOfCartItems":3,"data":{"_id":"c1","products":[
		{"_id":"l1","count":2,"price":10,"product":"p1"},
		{"_id":"l2","count":1,"price":5,"product":{"_id":"p2","title":"Hat","price":5}}
	],"totalCartPrice":25}}`
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	items := resp.Data.Products
	if items[0].Product.ID != "p1" || items[0].Product.Product != nil {
		t.Fatalf("bare ref = %#v", items[0].Product)
	}
	if items[1].Product.ID != "p2" || items[1].Product.Product == nil || items[1].Product.Product.Title != "Hat" {
		t.Fatalf("object ref = %#v", items[1].Product)
	}

	clone := resp.Data.Clone()
	clone.Products[1].Product.Product.Title = "Changed"
	if resp.Data.Products[1].Product.Product.Title != "Hat" {
		t.Fatal("Clone shares product pointers")
	}
}

func TestAuthResponseNestedData(t *testing.T) {
	var flat, nested AuthResponse
	if err := json.Unmarshal([]byte(`{"message":"success","token":"t1","user":{"name":"Mona","email":"m@x.co","role":"user"}}`), &flat); err != nil {
		t.Fatalf("unmarshal flat: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"data":{"token":"t2","user":{"name":"Ali"}}}`), &nested); err != nil {
		t.Fatalf("unmarshal nested: %v", err)
	}
	if flat.Token != "t1" || flat.User.Name != "Mona" {
		t.Fatalf("flat = %#v", flat)
	}
	if nested.Token != "t2" || nested.User == nil || nested.User.Name != "Ali" {
		t.Fatalf("nested = %#v", nested)
	}
}
