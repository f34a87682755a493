package repository

import (
	"encoding/json"
	"strings"

	"github.com/go-kit/kit/log/level"
)

// Company is a named shared account: a founder plus an ordered member list.
// The company name is itself an account key holding a ledger balance.
type Company struct {
	Name    string   `json:"name"`
	Founder string   `json:"founder"`
	Members []string `json:"members"`
}

// loadCompanies parses the company resource, skipping malformed records.
// Caller holds companyMu.
func (r *Repository) loadCompanies() ([]Company, error) {
	lines, err := readLines(r.path(CompanyFile))
	if err != nil {
		_ = level.Error(r.logger).Log("method", "loadCompanies", "err", err)
		return nil, err
	}
	companies := make([]Company, 0, len(lines))
	for _, line := range lines {
		var c Company
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			continue
		}
		if c.Name == "" || c.Founder == "" {
			continue
		}
		companies = append(companies, c)
	}
	return companies, nil
}

// saveCompanies writes the full company set. Caller holds companyMu.
func (r *Repository) saveCompanies(companies []Company) error {
	var b strings.Builder
	for _, c := range companies {
		raw, err := json.Marshal(c)
		if err != nil {
			return err
		}
		b.Write(raw)
		b.WriteByte('\n')
	}
	if err := writeFileAtomic(r.path(CompanyFile), []byte(b.String())); err != nil {
		_ = level.Error(r.logger).Log("method", "saveCompanies", "err", err)
		return err
	}
	return nil
}

// AddCompany registers a company with the founder as its sole member.
// Returns false when the name is already taken.
func (r *Repository) AddCompany(name, founder string) (bool, error) {
	name = SanitizeName(name)
	founder = SanitizeName(founder)
	r.companyMu.Lock()
	defer r.companyMu.Unlock()
	companies, err := r.loadCompanies()
	if err != nil {
		return false, err
	}
	for _, c := range companies {
		if c.Name == name {
			return false, nil
		}
	}
	companies = append(companies, Company{Name: name, Founder: founder, Members: []string{founder}})
	return true, r.saveCompanies(companies)
}

// AddCompanyMember appends the user to the company's member list. Returns
// false when the company does not exist or the user is already a member.
func (r *Repository) AddCompanyMember(name, user string) (bool, error) {
	name = SanitizeName(name)
	user = SanitizeName(user)
	r.companyMu.Lock()
	defer r.companyMu.Unlock()
	companies, err := r.loadCompanies()
	if err != nil {
		return false, err
	}
	for i := range companies {
		if companies[i].Name != name {
			continue
		}
		for _, m := range companies[i].Members {
			if m == user {
				return false, nil
			}
		}
		companies[i].Members = append(companies[i].Members, user)
		return true, r.saveCompanies(companies)
	}
	return false, nil
}

// IsCompanyMember reports whether the user is a member of the company.
func (r *Repository) IsCompanyMember(name, user string) (bool, error) {
	user = SanitizeName(user)
	c, err := r.CompanyData(name)
	if err != nil || c == nil {
		return false, err
	}
	for _, m := range c.Members {
		if m == user {
			return true, nil
		}
	}
	return false, nil
}

// CompanyData returns the company record, or nil when it does not exist.
func (r *Repository) CompanyData(name string) (*Company, error) {
	name = SanitizeName(name)
	r.companyMu.Lock()
	defer r.companyMu.Unlock()
	companies, err := r.loadCompanies()
	if err != nil {
		return nil, err
	}
	for i := range companies {
		if companies[i].Name == name {
			return &companies[i], nil
		}
	}
	return nil, nil
}

// IsCompany reports whether the account name belongs to a registered company.
func (r *Repository) IsCompany(name string) (bool, error) {
	c, err := r.CompanyData(name)
	return c != nil, err
}

// CompaniesForUser returns every company the user is a member of.
func (r *Repository) CompaniesForUser(user string) ([]Company, error) {
	user = SanitizeName(user)
	companies, err := r.AllCompanies()
	if err != nil {
		return nil, err
	}
	matched := make([]Company, 0)
	for _, c := range companies {
		for _, m := range c.Members {
			if m == user {
				matched = append(matched, c)
				break
			}
		}
	}
	return matched, nil
}

// AllCompanies returns the full company set.
func (r *Repository) AllCompanies() ([]Company, error) {
	r.companyMu.Lock()
	defer r.companyMu.Unlock()
	return r.loadCompanies()
}
