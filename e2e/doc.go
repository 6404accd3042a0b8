// Package e2e runs the workflows against a live storefront. The tests are
// behind the e2e build tag and read SHOPFLOW_* variables for the target.
package e2e
