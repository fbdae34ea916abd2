package toolcmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/workcharge/charge/pkg/agentclient"
)

func newContactsCmd() *cobra.Command {
	var (
		flags       agentFlags
		contactType string
		query       string
	)

	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "List contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newToolEnv(cmd)
			if err != nil {
				return err
			}
			userID, err := env.requireUser()
			if err != nil {
				return err
			}

			resp, err := env.client.QueryContacts(cmd.Context(), userID, contactType)
			if err != nil {
				return fmt.Errorf("querying contacts: %w", err)
			}
			return env.print(resp, query)
		},
	}

	addAgentFlags(cmd, &flags)
	cmd.Flags().StringVarP(&contactType, "type", "t", "", "Only contacts of this relationship type")
	cmd.Flags().StringVarP(&query, "query", "q", "", "gjson path to select from the reply")

	return cmd
}

const addContactLongDesc string = `Add a contact for the current user.

Fields come from a YAML file given with --file and from flags, which win
over the file. The name is required.

A contact file looks like:

  name: Li Wei
  gender: male
  relationship_type: colleague
  birth_date: 1990-05-17
  mbti: INTJ
  company_name: Example Ltd
  job_title: Engineer
  notes: met at the 2024 offsite

Examples:
  charge tool add-contact --name "Li Wei" --relationship colleague
  charge tool add-contact --file liwei.yaml`

func newAddContactCmd() *cobra.Command {
	var (
		flags   agentFlags
		file    string
		contact agentclient.Contact
	)

	cmd := &cobra.Command{
		Use:   "add-contact",
		Short: "Add a contact",
		Long:  addContactLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			merged, err := loadContact(file)
			if err != nil {
				return err
			}
			overlayContact(cmd, &merged, contact)

			env, err := newToolEnv(cmd)
			if err != nil {
				return err
			}
			userID, err := env.requireUser()
			if err != nil {
				return err
			}

			resp, err := env.client.AddContact(cmd.Context(), userID, merged)
			if err != nil {
				return fmt.Errorf("adding contact: %w", err)
			}
			return env.print(resp, "")
		},
	}

	addAgentFlags(cmd, &flags)
	cmd.Flags().StringVar(&file, "file", "", "YAML file with the contact fields")
	cmd.Flags().StringVar(&contact.Name, "name", "", "Contact name")
	cmd.Flags().StringVar(&contact.Gender, "gender", "", "Gender")
	cmd.Flags().StringVar(&contact.RelationshipType, "relationship", "", "Relationship type, e.g. friend or colleague")
	cmd.Flags().StringVar(&contact.BirthDate, "birth-date", "", "Birth date as YYYY-MM-DD")
	cmd.Flags().StringVar(&contact.BirthPlace, "birth-place", "", "Birth place")
	cmd.Flags().StringVar(&contact.MBTI, "mbti", "", "MBTI type")
	cmd.Flags().StringVar(&contact.CompanyName, "company", "", "Company name")
	cmd.Flags().StringVar(&contact.JobTitle, "job-title", "", "Job title")
	cmd.Flags().StringVar(&contact.Notes, "notes", "", "Free form notes")

	return cmd
}

func loadContact(path string) (agentclient.Contact, error) {
	var c agentclient.Contact
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("reading contact file: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parsing contact file %s: %w", path, err)
	}
	return c, nil
}

// overlayContact copies every flag the user set onto c.
func overlayContact(cmd *cobra.Command, c *agentclient.Contact, flags agentclient.Contact) {
	for _, f := range []struct {
		name string
		dst  *string
		val  string
	}{
		{"name", &c.Name, flags.Name},
		{"gender", &c.Gender, flags.Gender},
		{"relationship", &c.RelationshipType, flags.RelationshipType},
		{"birth-date", &c.BirthDate, flags.BirthDate},
		{"birth-place", &c.BirthPlace, flags.BirthPlace},
		{"mbti", &c.MBTI, flags.MBTI},
		{"company", &c.CompanyName, flags.CompanyName},
		{"job-title", &c.JobTitle, flags.JobTitle},
		{"notes", &c.Notes, flags.Notes},
	} {
		if cmd.Flags().Changed(f.name) {
			*f.dst = f.val
		}
	}
}
