package repositories

import (
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/demetriomjr/real-state-crm/domain/crm"
	"github.com/demetriomjr/real-state-crm/errors"
)

// CRMRepository persists the tenant-scoped CRM entities in BadgerDB.
// Keys are "{kind}:{tenant}:{id}" so a prefix scan lists one tenant's
// entities without touching its neighbours.
type CRMRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewCRMRepository(db *badger.DB, log *slog.Logger) CRMRepository {
	return CRMRepository{db: db, log: log}
}

func (r CRMRepository) StoreBusiness(business crm.Business) error {
	return r.put(fmt.Sprintf("business:%s", business.ID), business)
}

func (r CRMRepository) GetBusiness(id string) (crm.Business, error) {
	var business crm.Business
	err := r.get(fmt.Sprintf("business:%s", id), &business)
	return business, err
}

func (r CRMRepository) StoreUser(user crm.User) error {
	return r.put(fmt.Sprintf("user:%s:%s", user.BusinessID, user.ID), user)
}

func (r CRMRepository) GetUser(tenantID, id string) (crm.User, error) {
	var user crm.User
	err := r.get(fmt.Sprintf("user:%s:%s", tenantID, id), &user)
	return user, err
}

func (r CRMRepository) StorePerson(person crm.Person) error {
	return r.put(fmt.Sprintf("person:%s:%s", person.BusinessID, person.ID), person)
}

func (r CRMRepository) GetPerson(tenantID, id string) (crm.Person, error) {
	var person crm.Person
	err := r.get(fmt.Sprintf("person:%s:%s", tenantID, id), &person)
	return person, err
}

func (r CRMRepository) ListPeople(tenantID string) ([]crm.Person, error) {
	var people []crm.Person
	err := r.scan(fmt.Sprintf("person:%s:", tenantID), func(value []byte) error {
		var person crm.Person
		if err := msgpack.Unmarshal(value, &person); err != nil {
			return err
		}
		people = append(people, person)
		return nil
	})
	return people, err
}

func (r CRMRepository) StoreLead(lead crm.Lead) error {
	return r.put(fmt.Sprintf("lead:%s:%s", lead.BusinessID, lead.ID), lead)
}

func (r CRMRepository) GetLead(tenantID, id string) (crm.Lead, error) {
	var lead crm.Lead
	err := r.get(fmt.Sprintf("lead:%s:%s", tenantID, id), &lead)
	return lead, err
}

func (r CRMRepository) ListLeads(tenantID string) ([]crm.Lead, error) {
	var leads []crm.Lead
	err := r.scan(fmt.Sprintf("lead:%s:", tenantID), func(value []byte) error {
		var lead crm.Lead
		if err := msgpack.Unmarshal(value, &lead); err != nil {
			return err
		}
		leads = append(leads, lead)
		return nil
	})
	return leads, err
}

func (r CRMRepository) StoreCustomer(customer crm.Customer) error {
	return r.put(fmt.Sprintf("customer:%s:%s", customer.BusinessID, customer.ID), customer)
}

func (r CRMRepository) ListCustomers(tenantID string) ([]crm.Customer, error) {
	var customers []crm.Customer
	err := r.scan(fmt.Sprintf("customer:%s:", tenantID), func(value []byte) error {
		var customer crm.Customer
		if err := msgpack.Unmarshal(value, &customer); err != nil {
			return err
		}
		customers = append(customers, customer)
		return nil
	})
	return customers, err
}

func (r CRMRepository) put(key string, entity any) error {
	bytes, err := msgpack.Marshal(entity)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

func (r CRMRepository) get(key string, out any) error {
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return msgpack.Unmarshal(value, out)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrNotFound
	}
	return err
}

func (r CRMRepository) scan(prefix string, collect func(value []byte) error) error {
	return r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := it.Item().Value(collect); err != nil {
				return err
			}
		}
		return nil
	})
}
