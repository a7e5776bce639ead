// Package sqlaccess validates SQL queries against per-user dataset
// permissions before they are executed.
//
// Checks:
//   - Only SELECT statements are accepted
//   - Every stored table must be granted by a permission document
//   - Columns of restricted datasets must be in the dataset's allowlist
//   - Optionally, SELECT * over stored tables is rejected
//
// Example usage:
//
//	store := auth.NewMemoryStore()
//	store.AddDataset("alice", permissions.Dataset{YMLContent: doc})
//
//	v := sqlaccess.New(store, sqlaccess.Options{})
//	result := v.Validate(ctx, "SELECT id FROM public.users", "alice", "postgres")
//	if !result.IsAuthorized {
//		log.Println(result.Error)
//	}
package sqlaccess
